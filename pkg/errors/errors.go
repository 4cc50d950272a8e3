package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a transport failure talking to the remote listing or item endpoint.
// Every Error is fatal for the account being processed; recovery happens by
// resuming from the checkpoint on the next run.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause
func New(t ErrorType, code int, message string) *Error {
	return &Error{Type: t, Message: message, Code: code}
}

// Wrap creates an Error around an underlying cause
func Wrap(err error, t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// FromStatus maps an HTTP status code to an Error. It returns nil for 2xx.
func FromStatus(code int) *Error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return New(ErrorTypeAuth, code, "access denied")
	case code == http.StatusNotFound:
		return New(ErrorTypeNotFound, code, "resource not found")
	case code == http.StatusTooManyRequests:
		return New(ErrorTypeRateLimit, code, "rate limit exceeded")
	case code >= 500:
		return New(ErrorTypeServerError, code, "server error")
	default:
		return New(ErrorTypeUnknown, code, fmt.Sprintf("unexpected status code: %d", code))
	}
}

// TypeOf returns the ErrorType of the first *Error in err's chain, or
// ErrorTypeUnknown if there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsTransport reports whether err carries a transport Error
func IsTransport(err error) bool {
	var e *Error
	return stderrors.As(err, &e)
}
