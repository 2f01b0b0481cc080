package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure so transports can map it to a status code
// without inspecting message text.
type ErrorKind int

const (
	// KindMissingCredentials indicates no credentials were found in any of
	// the recognized request locations.
	KindMissingCredentials ErrorKind = iota

	// KindMissingAccessToken indicates credentials were present but carried
	// no access token.
	KindMissingAccessToken

	// KindExpiredCredentials indicates the supplied access token is expired
	// or about to expire.
	KindExpiredCredentials

	// KindAuthentication is the collapsed form of the credential kinds above,
	// produced at the middleware boundary.
	KindAuthentication

	// KindValidation indicates the tool arguments failed schema validation.
	KindValidation

	// KindNotFound indicates an unknown tool or a missing upstream resource.
	KindNotFound

	// KindUpstream indicates a Gmail API call failed.
	KindUpstream

	// KindInternal covers everything else.
	KindInternal
)

// Error is a classified error with a native HTTP status hint.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to the HTTP status used by the API surface.
// Missing credentials are a request-shape problem (400); the remaining
// credential kinds are authentication failures (401).
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindMissingCredentials, KindValidation:
		return http.StatusBadRequest
	case KindMissingAccessToken, KindExpiredCredentials, KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewError creates a classified error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and message to an underlying error.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err if it is (or wraps) an *Error, and
// KindInternal otherwise.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsCredentialError reports whether err is one of the three credential
// failure kinds that collapse into an authentication failure at the
// middleware boundary.
func IsCredentialError(err error) bool {
	switch KindOf(err) {
	case KindMissingCredentials, KindMissingAccessToken, KindExpiredCredentials:
		return true
	}
	return false
}

// StatusCodeOf returns the HTTP status for err, defaulting to 500 for
// unclassified errors.
func StatusCodeOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.StatusCode()
	}
	return http.StatusInternalServerError
}
