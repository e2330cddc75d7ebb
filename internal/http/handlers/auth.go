package handlers

import (
	"errors"
	"net/http"

	"avatar_bot/internal/logger"
	"avatar_bot/internal/telegram"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

// Auth exchanges Telegram WebApp init_data for a session token. The account
// is created on first login and start_param=ref_<id> attributes a referrer.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InitData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if len(req.InitData) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	values, err := telegram.ValidateInitData(req.InitData, h.BotToken)
	if err != nil {
		msg := "invalid telegram data"
		if errors.Is(err, telegram.ErrStaleInitData) {
			msg = "stale telegram data"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}

	tgUser, err := telegram.ParseUser(values)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user json"})
		return
	}

	ctx := c.Request.Context()
	acc, err := h.Accounts.GetOrCreate(ctx, tgUser.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	referralApplied := false
	if ref := telegram.StartReferrer(values); ref != 0 {
		res, err := h.Referrals.Attribute(ctx, tgUser.ID, ref)
		if err != nil {
			// login still succeeds
			logger.WithContext(ctx).Warn("start_param attribution failed", "user_id", tgUser.ID, "referrer_id", ref, "error", err)
		}
		referralApplied = res.Applied
	}

	h.Audit.LogLogin(ctx, acc.ID, c.ClientIP(), c.Request.UserAgent())

	token, err := h.Tokens.Generate(acc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         tgUser.ID,
			"username":   tgUser.Username,
			"first_name": tgUser.FirstName,
		},
		"account":          acc,
		"referral_applied": referralApplied,
	})
}
