package errors

import "fmt"

// ErrorCode represents a Roam error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrDispatchFailed   ErrorCode = "DISPATCH_FAILED"   // 502
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// RoamError represents a structured error with code, status, and details.
type RoamError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *RoamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *RoamError) Unwrap() error {
	if cause, ok := e.Details["cause"].(error); ok {
		return cause
	}
	return nil
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *RoamError {
	return &RoamError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a record cannot be found.
func NewNotFound(identifier string) *RoamError {
	return &RoamError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewDispatchFailed creates a 502 error for a failed remote dispatch.
// The action stays queued; the error records which action type failed.
func NewDispatchFailed(actionType string, cause error) *RoamError {
	msg := fmt.Sprintf("dispatch failed for action type %q", actionType)
	details := map[string]any{"action_type": actionType}
	if cause != nil {
		details["cause"] = cause
	}
	return &RoamError{
		Code:    ErrDispatchFailed,
		Status:  502,
		Message: msg,
		Details: details,
	}
}

// NewStoreUnavailable creates a 503 error for when the durable store
// could not be opened. Callers are expected to degrade, not crash.
func NewStoreUnavailable(cause error) *RoamError {
	msg := "durable store unavailable"
	details := map[string]any{}
	if cause != nil {
		msg = fmt.Sprintf("durable store unavailable: %v", cause)
		details["cause"] = cause
	}
	return &RoamError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *RoamError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &RoamError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a RoamError with the given code.
func Is(err error, code ErrorCode) bool {
	if rErr, ok := err.(*RoamError); ok {
		return rErr.Code == code
	}
	return false
}
