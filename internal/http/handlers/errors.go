package handlers

import (
	"errors"
	"net/http"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"

	"github.com/gin-gonic/gin"
)

// writeError maps ledger errors to HTTP statuses. Server-side failures are
// logged here, once.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if status >= 500 {
		logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		} else {
			msg = domain.ErrStoreUnavailable.Error()
		}
	}
	c.JSON(status, gin.H{"error": msg})
}
