// Package errs defines the error taxonomy shared by every castchain component.
//
// All failures that cross a package boundary are *Error values carrying a Kind.
// Callers branch on the kind with errors.Is against the sentinel values
// (ErrConfiguration, ErrInvalidInput, ErrUpstreamUnavailable, ErrNotFound) and
// transports map kinds to status codes with HTTPStatus.
package errs

import (
	"errors"
	"net/http"
)

// Kind is a machine-readable error class.
type Kind string

const (
	// KindUnknown marks errors that did not originate from this taxonomy.
	KindUnknown Kind = "unknown"
	// KindConfiguration is a missing or placeholder credential. Fatal, never retried.
	KindConfiguration Kind = "configuration"
	// KindInvalidInput is a malformed or missing identifier, rejected before any network call.
	KindInvalidInput Kind = "invalid_input"
	// KindUpstreamUnavailable is a network failure or non-success response from the data provider.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindNotFound is a looked-up entity that does not exist upstream.
	KindNotFound Kind = "not_found"
)

// Error is the structured error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrConfiguration       = &Error{Kind: KindConfiguration, Message: "configuration error"}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable, Message: "upstream unavailable"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Configuration, InvalidInput, Upstream and NotFound are shorthands for New/Wrap.

func Configuration(message string) *Error { return New(KindConfiguration, message) }

func InvalidInput(message string) *Error { return New(KindInvalidInput, message) }

func Upstream(message string, cause error) *Error {
	return Wrap(KindUpstreamUnavailable, message, cause)
}

func NotFound(message string) *Error { return New(KindNotFound, message) }

// KindOf extracts the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to the status code transports should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
