// Package errors defines the failure kinds surfaced by the Tool client.
//
// Every failure that crosses the client boundary is an *Error carrying one
// Kind. Callers branch on the kind with the Is* helpers rather than on
// message text.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a client failure.
type Kind string

const (
	// KindConnection is returned when the transport connection cannot be established.
	KindConnection Kind = "connection"

	// KindSend is returned when the full request could not be written.
	KindSend Kind = "send"

	// KindReceiveTimeout is returned when no response arrived within the retry budget.
	KindReceiveTimeout Kind = "receive_timeout"

	// KindMalformedResponse is returned when response text does not have the expected shape.
	KindMalformedResponse Kind = "malformed_response"

	// KindInvalidArgument is returned when a local precondition fails before any exchange.
	KindInvalidArgument Kind = "invalid_argument"
)

// Error is a classified client failure.
type Error struct {
	// Kind is the failure class
	Kind Kind

	// Message describes what was being attempted
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new classified error.
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// NewConnectionError creates a new connection error
func NewConnectionError(message string, cause error) *Error {
	return New(KindConnection, message, cause)
}

// NewSendError creates a new send error
func NewSendError(message string, cause error) *Error {
	return New(KindSend, message, cause)
}

// NewReceiveTimeoutError creates a new receive timeout error
func NewReceiveTimeoutError(message string, cause error) *Error {
	return New(KindReceiveTimeout, message, cause)
}

// NewMalformedResponseError creates a new malformed response error
func NewMalformedResponseError(message string, cause error) *Error {
	return New(KindMalformedResponse, message, cause)
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string, cause error) *Error {
	return New(KindInvalidArgument, message, cause)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsConnection checks if the error is a connection error
func IsConnection(err error) bool {
	return KindOf(err) == KindConnection
}

// IsSend checks if the error is a send error
func IsSend(err error) bool {
	return KindOf(err) == KindSend
}

// IsReceiveTimeout checks if the error is a receive timeout error
func IsReceiveTimeout(err error) bool {
	return KindOf(err) == KindReceiveTimeout
}

// IsMalformedResponse checks if the error is a malformed response error
func IsMalformedResponse(err error) bool {
	return KindOf(err) == KindMalformedResponse
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return KindOf(err) == KindInvalidArgument
}
