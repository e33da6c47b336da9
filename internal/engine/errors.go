package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes orchestration errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed input, caught before storage.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNotFound indicates a flow/adapter/receipt is absent.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeUnauthorized indicates the flow is not owned by the caller's scope.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeInvalidState indicates an illegal state transition was attempted.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeStorage indicates the underlying store failed. Fatal, not retried.
	ErrCodeStorage ErrorCode = "STORAGE"
)

// Error is a typed orchestration error. State-machine and ownership violations
// are raised at the point of detection and propagate unchanged to the caller;
// callers match on Code via the Is* helpers rather than on message text.
type Error struct {
	Code    ErrorCode
	Message string
	FlowID  string
	Err     error // underlying cause, for STORAGE errors
}

func (e *Error) Error() string {
	if e.FlowID != "" {
		return fmt.Sprintf("%s: %s (flow=%s)", e.Code, e.Message, e.FlowID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates a VALIDATION error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a NOT_FOUND error for a flow or registry entity.
func NewNotFoundError(kind, id string) *Error {
	e := &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %s not found", kind, id)}
	if kind == "flow" {
		e.FlowID = id
	}
	return e
}

// NewUnauthorizedError creates an UNAUTHORIZED error for a scope mismatch.
func NewUnauthorizedError(flowID string) *Error {
	return &Error{
		Code:    ErrCodeUnauthorized,
		Message: "flow is not owned by the calling wallet scope",
		FlowID:  flowID,
	}
}

// NewInvalidStateError creates an INVALID_STATE error with a reason naming the
// current state ("already running", "already completed", "cancelled", ...).
func NewInvalidStateError(flowID, reason string) *Error {
	return &Error{Code: ErrCodeInvalidState, Message: reason, FlowID: flowID}
}

// NewStorageError wraps a store failure.
func NewStorageError(op string, err error) *Error {
	return &Error{Code: ErrCodeStorage, Message: op, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// IsValidation reports whether err is a VALIDATION error.
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsUnauthorized reports whether err is an UNAUTHORIZED error.
func IsUnauthorized(err error) bool { return hasCode(err, ErrCodeUnauthorized) }

// IsInvalidState reports whether err is an INVALID_STATE error.
func IsInvalidState(err error) bool { return hasCode(err, ErrCodeInvalidState) }

// IsStorage reports whether err is a STORAGE error.
func IsStorage(err error) bool { return hasCode(err, ErrCodeStorage) }
