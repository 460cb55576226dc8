package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Authentication failures. Terminal for the session or request that
// triggered them, never retried automatically.
var (
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

// Account management failures.
var (
	ErrUserAlreadyExists    = fmt.Errorf("user already exists")
	ErrInvalidPassword      = fmt.Errorf("password does not meet complexity requirements")
	ErrContactAlreadyExists = fmt.Errorf("contact already added")
	ErrSelfContact          = fmt.Errorf("cannot add yourself as a contact")
)

// Relay and storage failures. A validation error is reported to the
// offending session only and keeps the connection open.
var (
	ErrEmptyContent     = fmt.Errorf("message content is empty")
	ErrMalformedEvent   = fmt.Errorf("malformed event")
	ErrStoreUnavailable = fmt.Errorf("message store unavailable")
)

var ErrWorkerPanic = fmt.Errorf("worker panic")

// MapToHTTPStatus resolves a domain error to the status code exposed by the
// HTTP layer. Unknown errors map to 500 so internals never leak.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrContactAlreadyExists),
		errors.Is(err, ErrSelfContact),
		errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrMalformedEvent):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
