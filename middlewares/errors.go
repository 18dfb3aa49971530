package middlewares

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/forgecore/internal"
)

// PanicError represents a recovered panic.
type PanicError = internal.PanicError

// TimeoutError represents a request that exceeded its deadline.
// It unwraps to context.DeadlineExceeded, so the default error service
// answers 504.
type TimeoutError struct {
	Duration time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s", e.Duration)
}

// Unwrap returns context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// Auth failures.
var (
	ErrMissingToken = errors.New("middlewares: missing authentication token")
	ErrInvalidToken = errors.New("middlewares: invalid authentication token")
)

// IsPanicError reports whether err is a PanicError.
func IsPanicError(err error) bool {
	return internal.IsPanicError(err)
}

// AsPanicError extracts the PanicError from err.
func AsPanicError(err error) (*PanicError, bool) {
	return internal.AsPanicError(err)
}

// IsTimeoutError reports whether err is a TimeoutError.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// AsTimeoutError extracts the TimeoutError from err.
func AsTimeoutError(err error) (*TimeoutError, bool) {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
