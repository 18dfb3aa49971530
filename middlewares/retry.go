package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// Retry defaults.
const (
	DefaultRetryAttempts = 3
	DefaultRetryInterval = 50 * time.Millisecond
)

// RetryConfig configures the retry middleware.
type RetryConfig struct {
	Logger   *slog.Logger
	Retry    func(err error) bool
	Methods  map[string]bool
	Attempts int
	Interval time.Duration
}

// RetryOption configures RetryConfig.
type RetryOption func(*RetryConfig)

// WithRetryAttempts sets the total number of attempts, including the first.
func WithRetryAttempts(n int) RetryOption {
	return func(cfg *RetryConfig) {
		if n > 0 {
			cfg.Attempts = n
		}
	}
}

// WithRetryInterval sets the base delay. Attempt n waits n*interval.
func WithRetryInterval(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) {
		if d > 0 {
			cfg.Interval = d
		}
	}
}

// WithRetryIf sets the predicate selecting retryable errors.
// The default retries upstream failures only.
func WithRetryIf(fn func(err error) bool) RetryOption {
	return func(cfg *RetryConfig) {
		if fn != nil {
			cfg.Retry = fn
		}
	}
}

// WithRetryMethods replaces the set of methods eligible for retries.
func WithRetryMethods(methods ...string) RetryOption {
	return func(cfg *RetryConfig) {
		cfg.Methods = make(map[string]bool, len(methods))
		for _, m := range methods {
			cfg.Methods[m] = true
		}
	}
}

// WithRetryLogger sets the logger for retried attempts.
func WithRetryLogger(l *slog.Logger) RetryOption {
	return func(cfg *RetryConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// Retry returns middleware that re-runs inner stages when they fail with a
// retryable error. Only idempotent methods are retried by default. Handlers
// that read the body must use Request.BodyBytes so every attempt sees it.
func Retry(opts ...RetryOption) internal.Middleware {
	cfg := &RetryConfig{
		Attempts: DefaultRetryAttempts,
		Interval: DefaultRetryInterval,
		Logger:   logger.NewNope(),
		Retry: func(err error) bool {
			return internal.CategoryOf(err) == internal.CategoryUpstream
		},
		Methods: map[string]bool{
			http.MethodGet:     true,
			http.MethodHead:    true,
			http.MethodOptions: true,
			http.MethodPut:     true,
			http.MethodDelete:  true,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			if !cfg.Methods[r.Method()] {
				return next(r)
			}

			var (
				resp *internal.Response
				err  error
			)
			for attempt := 1; ; attempt++ {
				resp, err = next(r)
				if err == nil || attempt >= cfg.Attempts || !cfg.Retry(err) {
					return resp, err
				}

				cfg.Logger.WarnContext(r.Context(), "retrying request",
					slog.String("request_id", r.ID()),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()),
				)
				if werr := sleep(r.Context(), time.Duration(attempt)*cfg.Interval); werr != nil {
					return resp, err
				}
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
