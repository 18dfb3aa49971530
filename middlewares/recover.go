package middlewares

import (
	"log/slog"
	"runtime"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	Logger            *slog.Logger
	StackSize         int  // Max stack trace size (default: 4096)
	DisablePrintStack bool // Disable stack capture
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		if size > 0 {
			cfg.StackSize = size
		}
	}
}

// WithRecoverDisablePrintStack disables stack capture.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// WithRecoverLogger sets the logger for recovered panics.
func WithRecoverLogger(l *slog.Logger) RecoverOption {
	return func(cfg *RecoverConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// Recover returns middleware that turns a panic in inner stages into a
// PanicError. The kernel recovers panics as well; Recover lets outer stages
// (logging, tracing) observe the failure as a plain error.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{
		StackSize: DefaultStackSize,
		Logger:    logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (resp *internal.Response, err error) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}

				var stack []byte
				attrs := []any{slog.Any("panic", v)}
				if !cfg.DisablePrintStack {
					stack = make([]byte, cfg.StackSize)
					stack = stack[:runtime.Stack(stack, false)]
					attrs = append(attrs, slog.String("stack", string(stack)))
				}
				cfg.Logger.ErrorContext(r.Context(), "panic recovered", attrs...)

				resp, err = nil, &PanicError{Value: v, Stack: stack}
			}()

			return next(r)
		}
	}
}
