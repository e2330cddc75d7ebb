package handlers

import (
	"net/http"
	"strconv"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"

	"github.com/gin-gonic/gin"
)

// Ledger API for the bot process, guarded by the service key.

func (h *Handler) GetOrCreateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	acc, err := h.Accounts.GetOrCreate(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *Handler) GetAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	acc, err := h.Accounts.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *Handler) GetBalance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	balance, err := h.Balance.GetBalance(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"star_balance": balance})
}

func (h *Handler) ConsumeFree(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	mode, err := domain.ParseMode(c.Param("mode"))
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Quota.TryConsumeFree(c.Request.Context(), id, mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type amountRequest struct {
	Amount int64 `json:"amount"`
	// SettleReferral defaults to true: a debit is a user purchase unless the
	// caller says otherwise.
	SettleReferral *bool `json:"settle_referral,omitempty"`
}

type debitResponse struct {
	domain.DebitResult
	Settlement      *domain.SettlementResult `json:"settlement,omitempty"`
	SettlementError string                   `json:"settlement_error,omitempty"`
}

func (h *Handler) Debit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	res, err := h.Balance.TryDebit(ctx, id, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	out := debitResponse{DebitResult: res}
	if res.Success && (req.SettleReferral == nil || *req.SettleReferral) {
		settled, err := h.Referrals.SettleReferralBonus(ctx, id)
		if err != nil {
			// the debit stands; settlement can be retried
			logger.WithContext(ctx).Error("referral settlement failed after debit", "user_id", id, "error", err)
			out.SettlementError = err.Error()
		} else {
			out.Settlement = &settled
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Credit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	balance, err := h.Balance.Credit(c.Request.Context(), id, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_balance": balance})
}

type referralRequest struct {
	ReferrerID int64 `json:"referrer_id"`
}

// Attribute links the account to referrer_id. An explicit self-referral is
// rejected here; the bot's /start path goes through the lenient service call.
func (h *Handler) Attribute(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req referralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.ReferrerID == id {
		writeError(c, domain.ErrSelfReferral)
		return
	}
	res, err := h.Referrals.Attribute(c.Request.Context(), id, req.ReferrerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SettleReferral pays the referral bonus for the account. /debit and
// /charge settle on their own; this route is the retry path after a reported
// settlement_error, and callers must only use it once the account has made a
// paid purchase.
func (h *Handler) SettleReferral(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.Referrals.SettleReferralBonus(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ChargeGeneration(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	mode, err := domain.ParseMode(c.Param("mode"))
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Charge.Charge(c.Request.Context(), id, mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ReferralStats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stats, err := h.Referrals.Stats(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AuditLog(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := h.Audit.Recent(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
