// Package errors provides the structured error taxonomy shared by the API client,
// the session and notification components, and the stub backend.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of a failure.
type ErrorType string

const (
	// TypeTransport: API unreachable, non-2xx without an envelope, malformed body, breaker open.
	TypeTransport ErrorType = "transport"
	// TypeInvalidCredential: login rejected.
	TypeInvalidCredential ErrorType = "invalid_credential"
	// TypeStaleToken: the stored token was rejected by an authenticated endpoint.
	TypeStaleToken ErrorType = "stale_token"
	// TypeValidation: the server rejected malformed input.
	TypeValidation ErrorType = "validation"
	// TypeNotFound: the referenced resource does not exist.
	TypeNotFound ErrorType = "not_found"
	// TypeInternal: anything unexpected.
	TypeInternal ErrorType = "internal"
)

// Error is a structured error. Message is the human-readable text taken from
// the server envelope (empty when the server sent none). Status is the HTTP
// status observed by the client, 0 when no response arrived.
type Error struct {
	Type    ErrorType
	Message string
	Status  int
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Type)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code a server should answer with for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeInvalidCredential, TypeStaleToken:
		return http.StatusUnauthorized
	case TypeNotFound:
		return http.StatusNotFound
	case TypeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    t,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// TransportError creates a transport failure. message may be empty.
func TransportError(message string, cause error) *Error {
	return newError(TypeTransport, message, cause)
}

// InvalidCredentialError creates a rejected-login error.
func InvalidCredentialError(message string) *Error {
	return newError(TypeInvalidCredential, message, nil)
}

// StaleTokenError creates a rejected-token error.
func StaleTokenError(message string) *Error {
	return newError(TypeStaleToken, message, nil)
}

// ValidationError creates a server-side input rejection.
func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

// NotFoundError creates a not-found error.
func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

// InternalError creates an unexpected error.
func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// WithStatus records the observed HTTP status (chainable).
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// AsStructuredError converts any error into a structured Error.
// If err already wraps an *Error, that one is returned.
// Otherwise it is wrapped as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("", err)
}

// TypeOf returns the category of err, or "" for nil.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	return AsStructuredError(err).Type
}

// IsType reports whether err is a structured error of type t.
func IsType(err error, t ErrorType) bool {
	var structuredErr *Error
	return errors.As(err, &structuredErr) && structuredErr.Type == t
}

// MessageOf returns the server-provided message carried by err, or fallback
// when there is none. Transport details never leak into the result.
func MessageOf(err error, fallback string) string {
	var structuredErr *Error
	if errors.As(err, &structuredErr) && structuredErr.Message != "" {
		return structuredErr.Message
	}
	return fallback
}
