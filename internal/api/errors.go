package api

import (
	"errors"
	"fmt"
)

// SuccessCode is the envelope code the backend uses for success. Any
// other code is a logical failure even when the HTTP status is 2xx.
const SuccessCode = "XS0001"

// AuthError indicates that the API token was rejected (HTTP 401).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError is returned for non-2xx responses other than 401.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// EnvelopeError is returned when the HTTP exchange succeeded but the
// envelope code is not SuccessCode.
type EnvelopeError struct {
	Method  string
	Path    string
	Code    string
	Message string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("api error %s on %s %s: %s", e.Code, e.Method, e.Path, e.Message)
}

// IsEnvelopeError reports whether err carries an EnvelopeError.
func IsEnvelopeError(err error) bool {
	var envErr *EnvelopeError
	return errors.As(err, &envErr)
}

// UserMessage returns a short message suitable for a toast. Backend
// messages are preferred when present.
func UserMessage(err error) string {
	var (
		authErr   *AuthError
		envErr    *EnvelopeError
		statusErr *StatusError
	)
	switch {
	case errors.As(err, &authErr):
		return "Your session has expired. Please sign in again."
	case errors.As(err, &envErr) && envErr.Message != "":
		return envErr.Message
	case errors.As(err, &statusErr) && statusErr.Message != "":
		return statusErr.Message
	case err != nil:
		return "Could not reach the alert service. Please try again."
	default:
		return ""
	}
}
