// Package apperr defines the closed set of request-path failures and how each
// one is presented to API callers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindRateLimited
	KindConflict
)

// GenericMessage is what callers see for internal faults outside development.
const GenericMessage = "Internal server error"

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error

	// status overrides Kind.Status for errors translated from echo.HTTPError.
	status int
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	if e.status != 0 {
		return e.status
	}
	return e.Kind.Status()
}

// PublicMessage is the text returned to the caller. Internal faults only
// reveal their cause in development.
func (e *Error) PublicMessage(development bool) string {
	if e.Kind != KindInternal {
		return e.Message
	}
	if development {
		return e.Error()
	}
	return GenericMessage
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// From maps any error onto one of the known kinds. Unknown errors become
// internal faults.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return fromHTTPError(httpErr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindInternal, Message: "request timed out", Err: err}
	}

	return Internal(err)
}

func fromHTTPError(he *echo.HTTPError) *Error {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}

	var kind Kind
	switch {
	case he.Code == http.StatusNotFound:
		kind = KindNotFound
	case he.Code == http.StatusUnauthorized || he.Code == http.StatusForbidden:
		kind = KindUnauthorized
	case he.Code == http.StatusTooManyRequests:
		kind = KindRateLimited
	case he.Code == http.StatusConflict:
		kind = KindConflict
	case he.Code >= 400 && he.Code < 500:
		kind = KindValidation
	default:
		return &Error{Kind: KindInternal, Message: msg, Err: he, status: he.Code}
	}
	return &Error{Kind: kind, Message: msg, status: he.Code}
}
