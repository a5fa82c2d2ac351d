package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"
)

func errorResponse(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// writeError maps package errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		fieldErrs checkout.FieldErrors
		apiErr    *backend.APIError
	)
	switch {
	case errors.As(err, &fieldErrs):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": fieldErrs})
	case errors.Is(err, cart.ErrCartHeld), errors.Is(err, checkout.ErrSubmitInFlight):
		errorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		errorResponse(c, http.StatusNotFound, "not found")
	case errors.Is(err, checkout.ErrSubmitFailed):
		errorResponse(c, http.StatusBadGateway, checkout.FailureNotice)
	case errors.As(err, &apiErr):
		requestLog(c).Warn("backend error", zap.Int("backend_status", apiErr.Status), zap.Error(err))
		errorResponse(c, http.StatusBadGateway, "backend unavailable")
	default:
		requestLog(c).Error("request failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
