package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorCode represents a Memoriae error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrUnconfigured   ErrorCode = "UNCONFIGURED"    // 412
	ErrMaxIterations  ErrorCode = "MAX_ITERATIONS"  // 422
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing entity.
func NewNotFound(kind, identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *Error {
	return &Error{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewUnconfigured creates a 412 error for a capability that cannot be built
// from the current settings (e.g. no LLM credential on file).
func NewUnconfigured(msg string) *Error {
	return &Error{
		Code:    ErrUnconfigured,
		Status:  412,
		Message: msg,
	}
}

// NewMaxIterations creates the distinct failure returned when a tool feedback
// loop exhausts its iteration budget without the model signalling completion.
func NewMaxIterations(iterations int) *Error {
	return &Error{
		Code:    ErrMaxIterations,
		Status:  422,
		Message: fmt.Sprintf("maximum iterations (%d) reached without completion", iterations),
		Details: map[string]any{"iterations": iterations},
	}
}

// NewInternal wraps an unexpected error as a 500.
func NewInternal(err error) *Error {
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrNotFound
}

// IsUnconfigured reports whether err carries the UNCONFIGURED code.
func IsUnconfigured(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrUnconfigured
}

// IsMaxIterations reports whether err is the iteration-budget failure.
func IsMaxIterations(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrMaxIterations
}

// IsConnectionError reports whether err is a connection/timeout-class failure:
// context deadlines, network errors, or sqlite lock/busy contention. The
// scheduler's circuit breaker counts only these; a logic error from one
// automation must not trip a breaker that exists to protect shared resources.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"SQLITE_BUSY",
		"connection refused",
		"connection reset",
		"i/o timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
