package util

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the communication layer.
type ErrorKind string

const (
	// KindValidation marks failures caught before any request is issued.
	KindValidation ErrorKind = "VALIDATION"
	// KindServerRejection marks a well-formed success:false response.
	KindServerRejection ErrorKind = "SERVER_REJECTION"
	// KindTransport marks network errors and malformed response bodies.
	KindTransport ErrorKind = "TRANSPORT_FAILURE"
)

// Validation error codes.
const (
	CodeEmptyMessage = "EMPTY_MESSAGE"
	CodeFileTooLarge = "FILE_TOO_LARGE"
)

// ClientError standardizes application errors.
type ClientError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewValidationError constructs a pre-network validation failure.
func NewValidationError(code, message string) error {
	return &ClientError{Kind: KindValidation, Code: code, Message: message}
}

// NewServerRejection wraps a success:false response; message is the
// server-provided error text, shown to the user verbatim.
func NewServerRejection(message string) error {
	if message == "" {
		message = "request rejected"
	}
	return &ClientError{Kind: KindServerRejection, Code: "SERVER_REJECTED", Message: message}
}

// NewTransportFailure wraps a network error or malformed response.
func NewTransportFailure(err error) error {
	return &ClientError{Kind: KindTransport, Code: "TRANSPORT_FAILURE", Message: "request failed", Err: err}
}

// ToClientError converts generic errors to ClientError.
func ToClientError(err error) *ClientError {
	if err == nil {
		return nil
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr
	}
	return &ClientError{Kind: KindTransport, Code: "TRANSPORT_FAILURE", Message: "request failed", Err: err}
}

// IsValidation reports whether err is a pre-network validation failure.
func IsValidation(err error) bool {
	return kindOf(err) == KindValidation
}

// IsServerRejection reports whether err carries server-provided error text.
func IsServerRejection(err error) bool {
	return kindOf(err) == KindServerRejection
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	return kindOf(err) == KindTransport
}

func kindOf(err error) ErrorKind {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Kind
	}
	return ""
}
