// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP handlers. Every failure that crosses a package boundary is an
// *Error carrying a stable machine-checkable Kind, a human message and the
// HTTP status the transport should use.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, machine-checkable error classification.
type Kind string

const (
	KindMissingField            Kind = "MISSING_FIELD"
	KindMissingIdentity         Kind = "MISSING_IDENTITY"
	KindDuplicateIdentity       Kind = "DUPLICATE_IDENTITY"
	KindPasswordPolicyViolation Kind = "PASSWORD_POLICY_VIOLATION"
	KindInvalidCredentials      Kind = "INVALID_CREDENTIALS"
	KindExpiredToken            Kind = "EXPIRED_TOKEN"
	KindMalformedToken          Kind = "MALFORMED_TOKEN"
	KindInvalidSignature        Kind = "INVALID_SIGNATURE"
	KindMissingToken            Kind = "MISSING_TOKEN"
	KindForbidden               Kind = "FORBIDDEN"
	KindNotFound                Kind = "NOT_FOUND"
	KindMethodNotAllowed        Kind = "METHOD_NOT_ALLOWED"
	KindValidation              Kind = "VALIDATION_ERROR"
	KindInvalidBody             Kind = "INVALID_BODY"
	KindStoreUnavailable        Kind = "STORE_UNAVAILABLE"
)

var statusByKind = map[Kind]int{
	KindMissingField:            http.StatusBadRequest,
	KindMissingIdentity:         http.StatusBadRequest,
	KindDuplicateIdentity:       http.StatusConflict,
	KindPasswordPolicyViolation: http.StatusBadRequest,
	KindInvalidCredentials:      http.StatusUnauthorized,
	KindExpiredToken:            http.StatusUnauthorized,
	KindMalformedToken:          http.StatusUnauthorized,
	KindInvalidSignature:        http.StatusUnauthorized,
	KindMissingToken:            http.StatusUnauthorized,
	KindForbidden:               http.StatusForbidden,
	KindNotFound:                http.StatusNotFound,
	KindMethodNotAllowed:        http.StatusMethodNotAllowed,
	KindValidation:              http.StatusBadRequest,
	KindInvalidBody:             http.StatusBadRequest,
	KindStoreUnavailable:        http.StatusInternalServerError,
}

// Error is the unified application error.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	// Cause is logged server-side and never rendered to clients.
	Cause error `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Status returns the HTTP status code recommended for the error kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ClientFault reports whether the error is caused by the caller's input.
func (e *Error) ClientFault() bool { return e.Status() < http.StatusInternalServerError }

// WithDetail sets a single detail key and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// MissingFields reports which required fields were absent.
func MissingFields(fields ...string) *Error {
	return New(KindMissingField, "required fields are missing").WithDetail("fields", fields)
}

// InvalidCredentials is the single generic answer for every failed login so
// callers cannot tell an unknown identity from a wrong password.
func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, "invalid credentials")
}

// NotFound reports a missing record of the named resource.
func NotFound(resource string) *Error {
	return Newf(KindNotFound, "%s not found", resource)
}

// StoreUnavailable wraps a persistence failure. The message is generic so no
// internal detail leaks to clients.
func StoreUnavailable(cause error) *Error {
	return New(KindStoreUnavailable, "internal server error").WithCause(cause)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindStoreUnavailable for unclassified
// errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindStoreUnavailable
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// From converts any error into an *Error. Unclassified errors become
// StoreUnavailable.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return StoreUnavailable(err)
}
