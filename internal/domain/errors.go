package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed tool call or API request.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindRateLimited      ErrorKind = "rate_limited"
	KindTransientNetwork ErrorKind = "transient_network"
	KindClientError      ErrorKind = "client_error"
	KindServerError      ErrorKind = "server_error"
	KindParseError       ErrorKind = "parse_error"
	KindInternal         ErrorKind = "internal"
)

// Retryable reports whether a failure of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTransientNetwork, KindServerError:
		return true
	default:
		return false
	}
}

// Error is the uniform failure value returned instead of a successful result.
type Error struct {
	Kind ErrorKind

	// Endpoint is the operation name the error relates to, if any.
	Endpoint string

	// Status is the last HTTP status received; 0 when no response was received.
	Status int

	// Message is a human-readable description, usually the API's own message.
	Message string

	// Attempts is the number of HTTP attempts made before giving up.
	Attempts int

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Status != 0 && e.Endpoint != "":
		return fmt.Sprintf("%s: %s: HTTP %d: %s", e.Kind, e.Endpoint, e.Status, msg)
	case e.Endpoint != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Endpoint, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError returns a validation Error with a formatted message.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind carried by err, or KindInternal when err does
// not wrap an *Error. It returns "" for a nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
