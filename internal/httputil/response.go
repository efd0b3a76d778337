// Package httputil holds the JSON error rendering and pagination helpers shared
// by the HTTP handlers.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// errorMapping ties a base error to its HTTP rendering. When exposeCause is
// set the wrapped message is returned to the client, otherwise the fixed
// message is.
type errorMapping struct {
	target      error
	status      int
	code        string
	message     string
	exposeCause bool
}

// Order matters: decryption failures wrap ErrUnprocessable and must match first.
var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found", false},
	{apperrors.ErrConflict, http.StatusConflict, "conflict", "The resource was modified concurrently, reload and retry", false},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", "", true},
	{cryptoDomain.ErrDecryptionFailed, http.StatusUnprocessableEntity, "decryption_failed", "The vault key could not open the requested data", false},
	{apperrors.ErrUnprocessable, http.StatusUnprocessableEntity, "unprocessable", "The request could not be processed", false},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication is required", false},
	{apperrors.ErrLocked, http.StatusLocked, "vault_locked", "The vault is locked, unlock it to continue", false},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden", "You don't have permission to access this resource", false},
	{apperrors.ErrUnavailable, http.StatusServiceUnavailable, "unavailable", "The service is temporarily unavailable, retry later", false},
}

var internalErrorMapping = errorMapping{
	status:  http.StatusInternalServerError,
	code:    "internal_error",
	message: "An internal error occurred",
}

func mapError(err error) errorMapping {
	for _, m := range errorMappings {
		if apperrors.Is(err, m.target) {
			return m
		}
	}
	return internalErrorMapping
}

// HandleErrorGin renders err as a JSON error body with the status of the first
// matching base error. Unknown errors become a bare 500. The full chain is
// logged, at error level for 5xx and warn otherwise.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	m := mapError(err)
	body := ErrorResponse{Error: m.code, Message: m.message}
	if m.exposeCause {
		body.Message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if m.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", m.status),
			slog.String("error_code", m.code),
			slog.Any("error", err),
		)
	}

	c.JSON(m.status, body)
}

// HandleBadRequestGin answers 400 for bodies or parameters that fail to bind.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
}

// HandleValidationErrorGin answers 422 with the validator's message.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_error", Message: err.Error()})
}
