package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
)

var (
	// Routing errors carry their HTTP status via StatusCode.
	ErrNotFound         error = statusError{status: http.StatusNotFound, msg: "not found"}
	ErrMethodNotAllowed error = statusError{status: http.StatusMethodNotAllowed, msg: "method not allowed"}

	// Mux errors
	ErrNoContextFactory = errors.New("no context factory provided")
	ErrNilResponse      = errors.New("nil response")
	ErrInvalidPattern   = errors.New("invalid route path pattern")
)

// statusError is a routing error with an associated HTTP status code.
type statusError struct {
	status int
	msg    string
}

func (e statusError) Error() string {
	return e.msg
}

func (e statusError) StatusCode() int {
	return e.status
}

// statusCode is an unexported interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// StatusCode returns the HTTP status carried by err, or 500 if it has none.
func StatusCode(err error) int {
	var sc statusCode
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// defaultErrorHandler writes the error as plain text.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()

	// Prevent double-writing responses which causes HTTP protocol errors
	if ww, ok := w.(*responseWriter); ok && ww.Written() {
		return
	}

	http.Error(w, err.Error(), StatusCode(err))
}

// PanicError allows error handlers to detect recovered panics.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
