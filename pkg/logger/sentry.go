package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig enables forwarding of warnings and errors to Sentry.
type SentryConfig struct {
	DSN         string `koanf:"dsn"`
	Environment string `koanf:"environment"`
	// MinLevel is the lowest level kept as a Sentry log: warn (default) or error.
	// Errors always create Sentry issues.
	MinLevel string `koanf:"min_level"`
}

// sentryHandler initializes the Sentry SDK and returns its slog handler.
// It reports false when the DSN is empty or the SDK fails to start; the
// failure is written to fallback.
func sentryHandler(cfg SentryConfig, fallback slog.Handler) (slog.Handler, bool) {
	if cfg.DSN == "" {
		return nil, false
	}

	env := cfg.Environment
	if env == "" {
		env = "production"
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: env,
		EnableLogs:  true,
	}); err != nil {
		slog.New(fallback).Error("failed to initialize sentry", slog.String("error", err.Error()))
		return nil, false
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if lvl, err := ParseLevel(cfg.MinLevel); err == nil && lvl >= slog.LevelError {
		logLevels = []slog.Level{slog.LevelError}
	}

	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background()), true
}
