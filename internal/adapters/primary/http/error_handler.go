package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/sla-notifier/internal/adapters/primary/http/middleware"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/infrastructure/logging"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err, requestID)
		h.writeValidationErrorResponse(w, validationErrs)
		return
	}

	appErr := toAppError(err)
	h.logError(r, appErr.StatusCode, err, requestID)
	h.writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

// toAppError converts domain errors to HTTP errors. Errors that are already
// *AppError pass through; anything unrecognised is a 500.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var cfgErr *apperrors.ConfigError
	switch {
	// Snapshot shape
	case errors.As(err, &cfgErr):
		return apperrors.NewValidationError(err, "Snapshot does not match the configured columns",
			map[string]interface{}{"columns": cfgErr.Columns}).WithCode("MISSING_COLUMNS")
	case errors.Is(err, apperrors.ErrMissingColumn):
		return apperrors.NewValidationError(err, err.Error(), nil).WithCode("MISSING_COLUMNS")
	case errors.Is(err, apperrors.ErrUnsupportedFormat):
		return apperrors.NewBadRequestError(err, "Unsupported snapshot format, expected .csv or .xlsx").
			WithCode("UNSUPPORTED_FORMAT")
	case errors.Is(err, apperrors.ErrSnapshotNotFound):
		return apperrors.NewNotFoundError(err, "No snapshot available").WithCode("SNAPSHOT_NOT_FOUND")

	// Run control
	case errors.Is(err, apperrors.ErrRunInProgress):
		return apperrors.NewConflictError(err, "A pipeline run is already in progress").WithCode("RUN_IN_PROGRESS")
	case errors.Is(err, apperrors.ErrRunNotFound):
		return apperrors.NewNotFoundError(err, "No run has completed yet").WithCode("RUN_NOT_FOUND")

	case errors.Is(err, apperrors.ErrUnauthorized):
		return apperrors.NewUnauthorizedError("Authentication required")
	case errors.Is(err, apperrors.ErrRateLimited):
		return apperrors.NewRateLimitError()

	default:
		return apperrors.NewInternalError(err)
	}
}

// logError logs the error with appropriate context
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error, requestID string) {
	h.logger.Log(r.Context(), logging.LevelForStatus(statusCode), "request failed",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	)
}

func (h *ErrorHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	WriteJSON(w, statusCode, response)
}

func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors) {
	WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: errs.Errors,
	})
}

// HandleError writes err and reports whether there was one.
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
