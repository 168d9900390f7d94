package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies application errors for callers
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation_error"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeNotFound           ErrorCode = "not_found"
	CodePolicyViolation    ErrorCode = "policy_violation"
	CodeScoreBandUnmatched ErrorCode = "score_band_unmatched"
	CodeStoreUnavailable   ErrorCode = "store_unavailable"
	CodeInternal           ErrorCode = "internal_error"
)

// AppError is the structured error surfaced by services to handlers
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidation reports malformed or out-of-range input
func NewValidation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

// NewUnauthorized reports failed authentication
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

// NewNotFound reports an absent account or transaction
func NewNotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Status:  http.StatusNotFound,
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// NewPolicyViolation reports a rejected action with the tier, the limit that
// was violated and the offending value
func NewPolicyViolation(tier, limit string, limitValue, attempted any, message string) *AppError {
	return &AppError{
		Code:    CodePolicyViolation,
		Message: message,
		Status:  http.StatusForbidden,
		Details: map[string]any{
			"tier":        tier,
			"limit":       limit,
			"limit_value": limitValue,
			"attempted":   attempted,
		},
	}
}

// NewScoreBandUnmatched reports a score that no tier band contains. The tier
// table is exhaustive by construction, so this is an internal fault.
func NewScoreBandUnmatched(score int) *AppError {
	return &AppError{
		Code:    CodeScoreBandUnmatched,
		Message: fmt.Sprintf("no trust tier matches score %d", score),
		Status:  http.StatusInternalServerError,
		Details: map[string]any{"score": score},
	}
}

// NewStoreUnavailable reports a failed backing-store call. It is never
// retried inside the core; the current evaluation aborts.
func NewStoreUnavailable(op string, err error) *AppError {
	return &AppError{
		Code:    CodeStoreUnavailable,
		Message: fmt.Sprintf("store operation failed: %s", op),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// NewInternal reports an unclassified internal error
func NewInternal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError, Err: err}
}

// AsAppError unwraps err into an *AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
