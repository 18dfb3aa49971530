package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig configures the timeout middleware.
type TimeoutConfig struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// TimeoutOption configures TimeoutConfig.
type TimeoutOption func(*TimeoutConfig)

// WithTimeoutLogger sets the logger for expired requests.
func WithTimeoutLogger(l *slog.Logger) TimeoutOption {
	return func(cfg *TimeoutConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// Timeout returns middleware that bounds inner stages by a deadline.
// Inner stages receive a request whose context expires after timeout. When
// the deadline passes first a TimeoutError is returned; the inner goroutine
// keeps running until it observes ctx.Done() and its result is discarded.
func Timeout(timeout time.Duration, opts ...TimeoutOption) internal.Middleware {
	cfg := &TimeoutConfig{
		Timeout: timeout,
		Logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	type result struct {
		resp *internal.Response
		err  error
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()

			// Buffered so the worker never blocks once we stop listening.
			done := make(chan result, 1)
			go func() {
				var res result
				defer func() {
					if v := recover(); v != nil {
						res = result{err: &PanicError{Value: v}}
					}
					done <- res
				}()
				res.resp, res.err = next(r.WithContext(ctx))
			}()

			expired := func() bool {
				return errors.Is(ctx.Err(), context.DeadlineExceeded) && r.Context().Err() == nil
			}
			timedOut := func() error {
				cfg.Logger.WarnContext(ctx, "request timeout",
					slog.String("request_id", r.ID()),
					slog.Duration("timeout", cfg.Timeout),
				)
				return &TimeoutError{Duration: cfg.Timeout}
			}

			select {
			case res := <-done:
				// A stage that gave up on our deadline reports the timeout too.
				if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && expired() {
					return nil, timedOut()
				}
				return res.resp, res.err
			case <-ctx.Done():
				if expired() {
					return nil, timedOut()
				}
				return nil, r.Context().Err()
			}
		}
	}
}
