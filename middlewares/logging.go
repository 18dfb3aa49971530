package middlewares

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/forgecore/internal"
)

// LoggingConfig configures the access log middleware.
type LoggingConfig struct {
	Level     slog.Level
	SkipPaths map[string]bool
}

// LoggingOption configures LoggingConfig.
type LoggingOption func(*LoggingConfig)

// WithLoggingLevel sets the level for successful requests.
// Failures are always logged at warn (4xx) or error (5xx and unexpected).
func WithLoggingLevel(level slog.Level) LoggingOption {
	return func(cfg *LoggingConfig) {
		cfg.Level = level
	}
}

// WithLoggingSkipPaths excludes exact paths such as health probes.
func WithLoggingSkipPaths(paths ...string) LoggingOption {
	return func(cfg *LoggingConfig) {
		for _, p := range paths {
			cfg.SkipPaths[p] = true
		}
	}
}

// Logging returns middleware that writes one access log record per request
// after the inner stages return, including when they fail.
func Logging(log *slog.Logger, opts ...LoggingOption) internal.Middleware {
	cfg := &LoggingConfig{
		Level:     slog.LevelInfo,
		SkipPaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		if log == nil {
			return next
		}
		return func(r *internal.Request) (*internal.Response, error) {
			if cfg.SkipPaths[r.Path()] {
				return next(r)
			}

			start := time.Now()
			resp, err := next(r)

			attrs := []slog.Attr{
				slog.String("request_id", r.ID()),
				slog.String("method", r.Method()),
				slog.String("path", r.Path()),
				slog.String("remote_addr", r.RemoteAddr()),
				slog.Duration("duration", time.Since(start)),
			}

			level := cfg.Level
			switch {
			case err != nil:
				category := internal.CategoryOf(err)
				attrs = append(attrs,
					slog.String("category", string(category)),
					slog.String("error", err.Error()),
				)
				level = slog.LevelWarn
				if category == internal.CategoryUnexpected || category == internal.CategoryUpstream {
					level = slog.LevelError
				}
			case resp != nil:
				attrs = append(attrs, slog.Int("status", resp.Status()))
				if resp.Status() >= 500 {
					level = slog.LevelError
				}
			}

			log.LogAttrs(r.Context(), level, "request completed", attrs...)
			return resp, err
		}
	}
}
