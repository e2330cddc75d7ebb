package handlers

import (
	"net/http"
	"strconv"

	"avatar_bot/internal/http/middleware"
	"avatar_bot/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Accounts    *service.AccountService
	Quota       *service.QuotaService
	Balance     *service.BalanceService
	Referrals   *service.ReferralService
	Charge      *service.ChargeService
	Tokens      *service.TokenIssuer
	Audit       *service.AuditService // optional
	BotToken    string
	BotUsername string
}

// getUserID returns the Mini App user set by the JWT middleware.
func getUserID(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return 0, false
	}
	return id, true
}
