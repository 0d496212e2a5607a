package client

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// AuthError is a 401/403 rejection. It is never retried and never clears
// the session on its own.
type AuthError struct {
	*HTTPError
}

func (e *AuthError) Error() string { return "unauthorized: " + e.HTTPError.Error() }
func (e *AuthError) Unwrap() error { return e.HTTPError }

// ConflictError is the backend refusing a booking, typically because the
// interval overlaps an existing reservation. Message is the backend's
// text, unmodified.
type ConflictError struct {
	*HTTPError
}

func (e *ConflictError) Error() string { return "conflict: " + e.HTTPError.Error() }
func (e *ConflictError) Unwrap() error { return e.HTTPError }

// NetworkError means the request did not complete.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// Describe returns the message to show a user for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var (
		authErr     *AuthError
		conflictErr *ConflictError
		netErr      *NetworkError
		httpErr     *HTTPError
	)
	switch {
	case errors.As(err, &authErr):
		return "please check your credentials"
	case errors.As(err, &conflictErr):
		if conflictErr.Message != "" {
			return conflictErr.Message
		}
		return "that time is already booked"
	case errors.As(err, &netErr):
		return "request failed, please try again"
	case errors.As(err, &httpErr):
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return fmt.Sprintf("request failed (%s)", http.StatusText(httpErr.StatusCode))
	}
	return err.Error()
}

// classify turns a raw status error into the taxonomy type for it.
func classify(e *HTTPError) error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{HTTPError: e}
	case http.StatusConflict:
		return &ConflictError{HTTPError: e}
	}
	return e
}
