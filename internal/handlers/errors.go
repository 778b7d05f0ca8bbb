package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// lockedRetryAfterSeconds is the Retry-After hint sent while a period is closing.
const lockedRetryAfterSeconds = 5

// respondError maps a service error onto the HTTP status and body of the ledger API.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("action", action))

	body := dto.ErrorResponse{Error: err.Error()}
	var ledgerErr apperrors.LedgerError
	if errors.As(err, &ledgerErr) {
		body.Kind = string(ledgerErr.Kind())
		body.Code = ledgerErr.Name()
		body.Details = ledgerErr.Fields()
	}

	var locked *apperrors.PeriodLockedError
	switch {
	case errors.As(err, &locked):
		logger.Warn("Period locked", slog.String("period_id", locked.PeriodID))
		c.Header("Retry-After", strconv.Itoa(lockedRetryAfterSeconds))
		c.JSON(http.StatusLocked, body)
	case errors.Is(err, apperrors.ErrIntegrity):
		logger.Error("Ledger integrity check failed", slog.String("error", err.Error()))
		body.Error = apperrors.ErrIntegrity.Error()
		if body.Kind == "" {
			body.Kind = string(apperrors.KindIntegrity)
		}
		c.JSON(http.StatusInternalServerError, body)
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate resource", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, body)
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("State conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Forbidden", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
	default:
		logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to " + action})
	}
}

// badRequest answers 400 for malformed input that never reached a service.
func badRequest(c *gin.Context, msg string, err error) {
	middleware.GetLoggerFromContext(c).Warn(msg, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg + ": " + err.Error(), Kind: string(apperrors.KindValidation)})
}

// requireUserID returns the authenticated subject or answers 401.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return "", false
	}
	return userID, true
}
