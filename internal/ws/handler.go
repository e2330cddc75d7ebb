package ws

import (
	"net/http"
	"slices"

	"avatar_bot/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenParser verifies a Mini App session token.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// HandleWS upgrades GET /ws?token=<jwt> and streams the user's ledger
// events. An empty allowedOrigins accepts any origin.
func HandleWS(hub *Hub, tokens TokenParser, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, err := tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Component("ws").Warn("upgrade failed", "user_id", userID, "error", err)
			return
		}

		// gin's handler returns while the client keeps the hijacked conn
		client := NewClient(userID, conn, hub)
		go client.Run()
	}
}
