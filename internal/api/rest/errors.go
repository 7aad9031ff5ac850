package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playforge/gamebank/internal/domain"
	"github.com/playforge/gamebank/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest        ErrorCode = "bad_request"
	ErrCodeNotFound          ErrorCode = "not_found"
	ErrCodeOwnershipConflict ErrorCode = "ownership_conflict"
	ErrCodeInsufficientFunds ErrorCode = "insufficient_funds"
	ErrCodeUnauthorized      ErrorCode = "unauthorized"

	// Server errors (5xx)
	ErrCodeInternalError      ErrorCode = "internal_error"
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	})
}

// respondDomainError maps a transfer engine failure to its HTTP status:
// invalid operations are 400, missing entities 404, ownership mismatches 409,
// insufficient funds 422, timeouts and storage outages 503, anything else 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, &APIError{
			Code:    ErrCodeBadRequest,
			Message: "Invalid operation",
			Details: err.Error(),
		})
	case errors.Is(err, domain.ErrEntityNotFound):
		c.JSON(http.StatusNotFound, &APIError{
			Code:    ErrCodeNotFound,
			Message: "Entity not found",
			Details: err.Error(),
		})
	case errors.Is(err, domain.ErrOwnershipMismatch):
		c.JSON(http.StatusConflict, &APIError{
			Code:    ErrCodeOwnershipConflict,
			Message: "Item ownership mismatch",
			Details: err.Error(),
		})
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeInsufficientFunds,
			Message: "Insufficient funds",
			Details: err.Error(),
		})
	case errors.Is(err, domain.ErrOperationTimedOut),
		errors.Is(err, domain.ErrStorageUnavailable):
		logger.ErrorCtx(c.Request.Context(), err, zap.String("path", c.FullPath()))
		c.JSON(http.StatusServiceUnavailable, &APIError{
			Code:    ErrCodeServiceUnavailable,
			Message: "Service temporarily unavailable",
		})
	default:
		logger.ErrorCtx(c.Request.Context(), err, zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, &APIError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error",
		})
	}
}
