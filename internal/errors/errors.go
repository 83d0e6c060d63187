// Package errors provides custom error types for the grantdesk API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// FieldError describes a single failed validation rule on an input field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"fields,omitempty"`
	StatusCode int          `json:"-"`
	Internal   error        `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithFields creates a new AppError carrying a field-level error list.
func WithFields(sentinel *AppError, message string, fields []FieldError) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Fields:     fields,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// Expense pipeline errors.
var (
	ErrPipelineNotConfigured = &AppError{Code: "PIPELINE_NOT_CONFIGURED", Message: "Pipeline endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
	ErrInvalidAPIKey         = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
)

// Project errors.
var (
	ErrProjectNotFound      = &AppError{Code: "PROJECT_NOT_FOUND", Message: "Project not found", StatusCode: http.StatusNotFound}
	ErrDuplicateProjectCode = &AppError{Code: "DUPLICATE_PROJECT_CODE", Message: "A project with this code already exists", StatusCode: http.StatusConflict}
)

// Budget ledger errors.
var (
	ErrBudgetEntryNotFound    = &AppError{Code: "BUDGET_ENTRY_NOT_FOUND", Message: "Budget entry not found", StatusCode: http.StatusNotFound}
	ErrBudgetOverrun          = &AppError{Code: "BUDGET_OVERRUN", Message: "Expense exceeds the remaining allocation", StatusCode: http.StatusUnprocessableEntity}
	ErrInsufficientAllocation = &AppError{Code: "INSUFFICIENT_ALLOCATION", Message: "Source allocation cannot drop below its utilized amount", StatusCode: http.StatusUnprocessableEntity}
)

// Budget request errors.
var (
	ErrBudgetRequestNotFound = &AppError{Code: "BUDGET_REQUEST_NOT_FOUND", Message: "Budget request not found", StatusCode: http.StatusNotFound}
	ErrRequestAlreadyDecided = &AppError{Code: "REQUEST_ALREADY_DECIDED", Message: "Budget request has already been decided", StatusCode: http.StatusConflict}
	ErrApprovedAmountTooHigh = &AppError{Code: "APPROVED_AMOUNT_TOO_HIGH", Message: "Approved amount cannot exceed the requested amount", StatusCode: http.StatusBadRequest}
)

// Archive errors.
var (
	ErrAlreadyArchived = &AppError{Code: "ALREADY_ARCHIVED", Message: "Fiscal year has already been archived for this budget line", StatusCode: http.StatusConflict}
)

// Idempotency errors.
var (
	ErrIdempotencyInProgress = &AppError{Code: "IDEMPOTENCY_IN_PROGRESS", Message: "A request with this Idempotency-Key is still being processed", StatusCode: http.StatusConflict}
	ErrIdempotencyKeyReused  = &AppError{Code: "IDEMPOTENCY_KEY_REUSED", Message: "Idempotency-Key was already used with a different request body", StatusCode: http.StatusUnprocessableEntity}
)
