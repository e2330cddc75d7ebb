package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// UserRateLimit limits requests per authenticated user (not per IP) using
// Redis. Requires JWT middleware to run before this.
func UserRateLimit(client *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	local := SimpleRateLimitBy(maxRequests, window, userKey)
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if client == nil {
			local(c)
			return
		}

		key := "user_rl:" + userKey(c) + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		if !allowFixedWindow(c, client, key, maxRequests, window, "user:"+c.FullPath()) {
			return
		}
		c.Next()
	}
}

func userKey(c *gin.Context) string {
	id, _ := UserID(c)
	return strconv.FormatInt(id, 10)
}
