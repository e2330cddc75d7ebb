package handlers

import (
	"net/http"

	"avatar_bot/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	free, err := h.Quota.Remaining(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	acc, err := h.Accounts.Get(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	prices := make(map[domain.Mode]int64, len(domain.Modes))
	for _, m := range domain.Modes {
		prices[m] = h.Charge.Price(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           acc.ID,
		"star_balance": acc.StarBalance,
		"free":         free,
		"prices":       prices,
		"referred":     acc.ReferredBy != nil,
		"created_at":   acc.CreatedAt,
	})
}

// MyReferral returns the user's referral statistics and share link.
func (h *Handler) MyReferral(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	stats, err := h.Referrals.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	// Format: https://t.me/<bot>?start=ref_<id>
	link := ""
	if h.BotUsername != "" {
		link = "https://t.me/" + h.BotUsername + "?start=" + domain.ReferralPayload(userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
		"link":  link,
		"tiers": gin.H{
			"size":       domain.ReferralTierSize,
			"next_bonus": stats.NextBonus,
		},
	})
}
