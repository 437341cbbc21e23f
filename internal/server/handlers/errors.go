package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

// Error codes carried in the "error" field of failure responses.
const (
	CodeInvalidInput      = "invalid_input"
	CodeNotFound          = "not_found"
	CodeBatchClosed       = "batch_closed"
	CodeOutOfStock        = "out_of_stock"
	CodeInsufficientStock = "insufficient_stock"
	CodeStockOverflow     = "stock_overflow"
	CodeConflict          = "conflict"
	CodePersistence       = "persistence_failure"
	CodeVerification      = "verification_failed"
	CodeMessaging         = "messaging_failure"
	CodeInternal          = "internal"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Remaining *int   `json:"remaining,omitempty"`
}

// statusFor maps domain errors to an HTTP status and error code. Conflict is
// checked before persistence because a lost conditional write wraps both.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, models.ErrBatchClosed):
		return http.StatusConflict, CodeBatchClosed
	case errors.Is(err, models.ErrOutOfStock):
		return http.StatusUnprocessableEntity, CodeOutOfStock
	case errors.Is(err, models.ErrInsufficientStock):
		return http.StatusUnprocessableEntity, CodeInsufficientStock
	case errors.Is(err, models.ErrStockOverflow):
		return http.StatusUnprocessableEntity, CodeStockOverflow
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, models.ErrPersistence):
		return http.StatusServiceUnavailable, CodePersistence
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, code := statusFor(err)
	body := ErrorResponse{Error: code, Message: err.Error()}

	var insufficient *models.InsufficientStockError
	if errors.As(err, &insufficient) {
		body.Remaining = &insufficient.Remaining
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		if status == http.StatusInternalServerError {
			body.Message = "internal error"
		}
	} else {
		logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.String("code", code), zap.Error(err))
	}

	c.JSON(status, body)
}

func respondBindError(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: CodeInvalidInput, Message: err.Error()})
}
