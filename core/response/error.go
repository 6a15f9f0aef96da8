package response

import (
	"errors"
	"net/http"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
)

// Error returns a response that propagates err to the router's error handler.
func Error(err error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}

// HTTPError is an error with an HTTP status and a machine-readable code.
type HTTPError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
	cause   error
}

// NewHTTPError creates an HTTPError with the given status and code.
func NewHTTPError(status int, code string) HTTPError {
	return HTTPError{Status: status, Code: code}
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// StatusCode returns the HTTP status code for the error.
// This allows HTTPError to work with the router's StatusCode helper.
func (e HTTPError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Unwrap returns the error the HTTPError was built from, if any.
func (e HTTPError) Unwrap() error {
	return e.cause
}

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithError returns a copy of the error wrapping err.
func (e HTTPError) WithError(err error) HTTPError {
	e.cause = err
	return e
}

// AsHTTPError extracts an HTTPError from err. Errors without one become
// ErrInternal wrapping err.
func AsHTTPError(err error) HTTPError {
	var he HTTPError
	if errors.As(err, &he) {
		return he
	}
	return ErrInternal.WithError(err)
}

var (
	ErrBadRequest       = NewHTTPError(http.StatusBadRequest, "bad_request")
	ErrNotFound         = NewHTTPError(http.StatusNotFound, "not_found")
	ErrMethodNotAllowed = NewHTTPError(http.StatusMethodNotAllowed, "method_not_allowed")
	ErrTooManyRequests  = NewHTTPError(http.StatusTooManyRequests, "rate_limited")
	ErrInternal         = NewHTTPError(http.StatusInternalServerError, "internal_error")
	ErrUnavailable      = NewHTTPError(http.StatusServiceUnavailable, "service_unavailable")
)
