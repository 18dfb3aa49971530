package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Category classifies a failure for the error boundary.
type Category string

// Failure categories.
const (
	CategoryValidation    Category = "validation"
	CategoryNotFound      Category = "not_found"
	CategoryAuthorization Category = "authorization"
	CategoryUpstream      Category = "upstream"
	CategoryUnexpected    Category = "unexpected"
	CategoryCancelled     Category = "cancelled"
)

// Sentinel errors raised by the kernel and router.
var (
	ErrRouteNotFound    = errors.New("forgecore: route not found")
	ErrMethodNotAllowed = errors.New("forgecore: method not allowed")
	ErrNilResponse      = errors.New("forgecore: handler returned nil response")
	ErrNilRequest       = errors.New("forgecore: nil request")
	ErrRequestReplayed  = errors.New("forgecore: request already handled")
)

// Error is a categorized failure carrying everything an error service
// needs to render a response.
type Error struct {
	// Err is the underlying cause (for logs and events, never rendered).
	Err error

	// Category drives the error boundary's strategy selection.
	Category Category

	// Message is the user-facing message.
	Message string

	// Title is an optional title (defaults to the status text).
	Title string

	// Detail is an optional extended description.
	Detail string

	// ErrorCode is an application-specific code for clients and i18n.
	ErrorCode string

	// Code is the HTTP status code.
	Code int
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StatusCode() int {
	return e.Code
}

func (e *Error) StatusText() string {
	return http.StatusText(e.Code)
}

// ErrorOption configures an Error.
type ErrorOption func(*Error)

// NewError creates an Error with the given category, status code and message.
func NewError(category Category, code int, message string, opts ...ErrorOption) *Error {
	e := &Error{
		Category: category,
		Code:     code,
		Message:  message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithTitle(title string) ErrorOption {
	return func(e *Error) {
		e.Title = title
	}
}

func WithDetail(detail string) ErrorOption {
	return func(e *Error) {
		e.Detail = detail
	}
}

func WithErrorCode(code string) ErrorOption {
	return func(e *Error) {
		e.ErrorCode = code
	}
}

func WithCause(err error) ErrorOption {
	return func(e *Error) {
		e.Err = err
	}
}

// Convenience constructors for common failures.

func ErrBadRequest(message string, opts ...ErrorOption) *Error {
	return NewError(CategoryValidation, http.StatusBadRequest, message, opts...)
}

func ErrUnprocessable(message string, opts ...ErrorOption) *Error {
	return NewError(CategoryValidation, http.StatusUnprocessableEntity, message, opts...)
}

// ErrValidation wraps field errors. The default error service answers 422
// with the field list.
func ErrValidation(fields ValidationErrors, opts ...ErrorOption) *Error {
	return NewError(CategoryValidation, http.StatusUnprocessableEntity, "Validation failed", append([]ErrorOption{WithCause(fields)}, opts...)...)
}

func ErrUnauthorized(message string, opts ...ErrorOption) *Error {
	return NewError(CategoryAuthorization, http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...ErrorOption) *Error {
	return NewError(CategoryAuthorization, http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...ErrorOption) *Error {
	return NewError(CategoryNotFound, http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...ErrorOption) *Error {
	return NewError(CategoryValidation, http.StatusConflict, message, opts...)
}

// ErrUpstream wraps a failure of a downstream service the handler depends on.
func ErrUpstream(err error, opts ...ErrorOption) *Error {
	return NewError(CategoryUpstream, http.StatusBadGateway, "Bad Gateway", append([]ErrorOption{WithCause(err)}, opts...)...)
}

func ErrServiceUnavailable(message string, opts ...ErrorOption) *Error {
	return NewError(CategoryUpstream, http.StatusServiceUnavailable, message, opts...)
}

func ErrInternal(message string, opts ...ErrorOption) *Error {
	return NewError(CategoryUnexpected, http.StatusInternalServerError, message, opts...)
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of field validation failures.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error and returns the collection.
func (v ValidationErrors) Add(field, message string) ValidationErrors {
	return append(v, FieldError{Field: field, Message: message})
}

// PanicError is a panic recovered by the kernel or the Recover middleware.
type PanicError struct {
	Value any    // The panic value
	Stack []byte // Stack trace (nil if disabled)
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value to errors.Is/As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// CategoryOf classifies err. Uncategorized errors are CategoryUnexpected.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return CategoryUnexpected
	}

	var e *Error
	if errors.As(err, &e) && e.Category != "" {
		return e.Category
	}

	var ve ValidationErrors
	switch {
	case errors.As(err, &ve):
		return CategoryValidation
	case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrMethodNotAllowed):
		return CategoryNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CategoryCancelled
	}
	return CategoryUnexpected
}

// IsError reports whether err wraps an *Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// AsError extracts the *Error from err if present.
// Returns nil otherwise.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsPanicError reports whether err wraps a PanicError.
func IsPanicError(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}

// AsPanicError extracts the PanicError from err if present.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
