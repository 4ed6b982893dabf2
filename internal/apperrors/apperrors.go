// Package apperrors defines the failure reasons the core reports to the
// conversation frontend. Every reason is recoverable from the frontend's point
// of view; only Internal hides an infrastructure fault.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names a failure reason.
type Kind string

const (
	KindNotFound      Kind = "NOT_FOUND"
	KindNotRegistered Kind = "NOT_REGISTERED"
	KindAlreadyBooked Kind = "ALREADY_BOOKED"
	KindValidation    Kind = "VALIDATION_ERROR"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindRateLimited   Kind = "RATE_LIMITED"
	KindInternal      Kind = "INTERNAL_ERROR"
)

// Sentinels for errors.Is comparisons against a Kind.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrNotRegistered = &Error{Kind: KindNotRegistered}
	ErrAlreadyBooked = &Error{Kind: KindAlreadyBooked}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrRateLimited   = &Error{Kind: KindRateLimited}
	ErrInternal      = &Error{Kind: KindInternal}
)

// Error is a classified failure with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// HTTPStatus maps the kind to a response status for the RPC adapter.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindNotRegistered:
		return http.StatusForbidden
	case KindAlreadyBooked:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NotFound reports a missing resource, e.g. NotFound("spot").
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NotRegistered reports a caller with no user record.
func NotRegistered() *Error {
	return &Error{Kind: KindNotRegistered, Message: "you must register first"}
}

// AlreadyBooked reports a spot that is no longer available.
func AlreadyBooked() *Error {
	return &Error{Kind: KindAlreadyBooked, Message: "someone has already booked this spot"}
}

// Validation reports bad caller input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Unauthorized reports a missing or rejected credential.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// RateLimited reports a caller over their request budget.
func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: "too many requests, slow down"}
}

// Internal wraps an unexpected failure. err is logged, never shown.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As returns err as an *Error, classifying unknown errors as Internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("an unexpected error occurred", err)
}
