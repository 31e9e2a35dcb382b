// Package apierr defines the error-kind taxonomy shared by every component
// of the archive, independent of how a kind is eventually encoded on the
// wire.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the eight error kinds the archive distinguishes.
type Kind string

const (
	InputInvalid        Kind = "input_invalid"
	SecurityRejected    Kind = "security_rejected"
	RateLimited         Kind = "rate_limited"
	NotFound            Kind = "not_found"
	QueueFull           Kind = "queue_full"
	Conflict            Kind = "conflict"
	UpstreamUnavailable Kind = "upstream_unavailable"
	Internal            Kind = "internal"
)

// Error is the canonical error type returned by every internal package.
// API handlers map it to an HTTP status + JSON envelope; workers inspect
// Kind to decide retry vs. fail.
type Error struct {
	Kind    Kind
	Message string
	Details any
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// WithDetails attaches structured detail (e.g. remaining rate-limit seconds).
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// As reports whether err is (or wraps) an *Error, returning it if so.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HTTPStatus maps a Kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InputInvalid:
		return http.StatusBadRequest
	case SecurityRejected:
		return http.StatusForbidden
	case RateLimited:
		return http.StatusTooManyRequests
	case NotFound:
		return http.StatusNotFound
	case QueueFull:
		return http.StatusServiceUnavailable
	case Conflict:
		return http.StatusConflict
	case UpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
