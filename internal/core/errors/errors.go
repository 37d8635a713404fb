package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - these represent pipeline failures callers can branch on
var (
	// Snapshot & configuration
	ErrMissingColumn     = errors.New("required column missing")
	ErrSnapshotNotFound  = errors.New("no snapshot available")
	ErrUnsupportedFormat = errors.New("unsupported snapshot format")
	ErrInvalidRules      = errors.New("invalid lookup rules")

	// Run control
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
	ErrRunNotFound   = errors.New("run not found")

	// Notification
	ErrInvalidRecipient  = errors.New("invalid recipient address")
	ErrEmptyNotification = errors.New("notification has no items")

	// Authentication
	ErrUnauthorized = errors.New("unauthorized")

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrInternal    = errors.New("internal server error")
	ErrBadRequest  = errors.New("bad request")
	ErrConflict    = errors.New("resource conflict")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ConfigError reports a snapshot that cannot be processed because its shape
// does not match the configured columns.
type ConfigError struct {
	Err     error
	Columns []string
}

// NewMissingColumnsError names every required column absent from a snapshot.
func NewMissingColumnsError(columns []string) *ConfigError {
	return &ConfigError{Err: ErrMissingColumn, Columns: columns}
}

func (e *ConfigError) Error() string {
	if len(e.Columns) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), strings.Join(e.Columns, ", "))
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCode replaces the machine-readable code, keeping status and message.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// wrap ties err to the sentinel of its class so errors.Is matches both.
func wrap(sentinel, err error) error {
	switch {
	case err == nil:
		return sentinel
	case errors.Is(err, sentinel):
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        wrap(ErrBadRequest, err),
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        wrap(ErrNotFound, err),
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewConflictError(err error, message string) *AppError {
	return &AppError{
		Err:        wrap(ErrConflict, err),
		Message:    message,
		Code:       "CONFLICT",
		StatusCode: 409,
	}
}

func NewValidationError(err error, message string, details map[string]interface{}) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		StatusCode: 422,
		Details:    details,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: 429,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        wrap(ErrInternal, err),
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
