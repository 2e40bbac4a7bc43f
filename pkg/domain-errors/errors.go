// Package domainerrors provides coded errors shared by services and transport.
//
// Services return these so handlers can translate failures into HTTP statuses
// and user-facing messages without string matching. Stores return sentinel
// errors (pkg/platform/sentinel); services wrap them with a code here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport translation and retry policy.
type Code string

const (
	// CodeValidation marks missing or malformed user input. Never retried;
	// the caller corrects the input and resubmits.
	CodeValidation Code = "validation"
	// CodeBadRequest marks a structurally invalid request body.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks missing or rejected credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated identity lacking the required role.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a record that does not exist.
	CodeNotFound Code = "not_found"
	// CodeExhausted marks a bounded retry loop that ran out of attempts.
	CodeExhausted Code = "exhausted"
	// CodeUnavailable marks a backend request that failed; safe to retry
	// manually from scratch.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks everything else.
	CodeInternal Code = "internal"
)

// DomainError carries a code plus a short human-readable message.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

// Is lets errors.Is match two coded errors by code and message, which keeps
// require.ErrorIs usable against dErrors.New(...) in tests.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code && e.Message == t.Message
}

// New builds a coded error with a user-facing message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, cause: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Message returns the user-facing message of a coded error, or a generic
// fallback for uncoded errors so internals never leak to users.
func Message(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "Something went wrong. Please try again."
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps an error code onto an HTTP status for transport handlers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeExhausted:
		return http.StatusServiceUnavailable
	case CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
