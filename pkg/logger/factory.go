package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config describes a logger. Zero values mean JSON at info level to stdout.
type Config struct {
	Level  string       `koanf:"level"`
	Format string       `koanf:"format"`
	Sentry SentryConfig `koanf:"sentry"`
}

// Option configures New.
type Option func(*options)

type options struct {
	output     io.Writer
	extractors []ContextExtractor
	attrs      []any
	cfg        Config
}

// WithConfig applies a loaded Config.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithOutput sets the destination of the local handler.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithContextExtractors adds context extractors.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithComponent tags every record with a component name.
func WithComponent(name string) Option {
	return func(o *options) {
		if name != "" {
			o.attrs = append(o.attrs, slog.String("component", name))
		}
	}
}

// New builds a logger. When the config carries a Sentry DSN, records are sent
// to both the local handler and Sentry.
func New(opts ...Option) *slog.Logger {
	o := &options{output: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	level, err := ParseLevel(o.cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	handler := localHandler(o.output, o.cfg.Format, level)
	if sh, ok := sentryHandler(o.cfg.Sentry, handler); ok {
		handler = fanout{handler, sh}
	}

	l := slog.New(WithExtractors(handler, o.extractors...))
	if len(o.attrs) > 0 {
		l = l.With(o.attrs...)
	}
	return l
}

// ParseLevel maps debug, info, warn/warning and error (any case) to a level.
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func localHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	ho := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, FormatText) {
		return slog.NewTextHandler(w, ho)
	}
	return slog.NewJSONHandler(w, ho)
}
