package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport-layer translation.
type Code string

const (
	CodeBadRequest Code = "bad_request"
	CodeRejected   Code = "rejected"
	CodeNotFound   Code = "not_found"
	CodeProvider   Code = "provider_error"
	CodeInternal   Code = "internal"
)

// DomainError carries a code alongside the message so handlers can map
// domain failures to HTTP statuses without string matching.
type DomainError struct {
	Code    Code
	Message string
	wrapped error
}

func (e *DomainError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.wrapped }

// New constructs a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, wrapped: err}
}

// HasCode reports whether err (or anything it wraps) is a DomainError with
// the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ToHTTPStatus maps a domain error code to an HTTP status. Rejected session
// completions deliberately map to a generic 400 so callers cannot probe
// which check failed.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeRejected:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
