package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dmitrymomot/forgecore/pkg/logger"
	"github.com/dmitrymomot/forgecore/pkg/redis"
	"github.com/dmitrymomot/forgecore/pkg/telemetry"
)

// DefaultPrefix is the environment variable prefix. A double underscore
// separates nested keys: FORGE_SERVER__ADDRESS sets server.address.
const DefaultPrefix = "FORGE_"

// Event backends.
const (
	EventsMemory = "memory"
	EventsRedis  = "redis"
)

// Config is the process configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        logger.Config    `koanf:"log"`
	Events     EventsConfig     `koanf:"events"`
	Middleware MiddlewareConfig `koanf:"middleware"`
	Telemetry  telemetry.Config `koanf:"telemetry"`
	Redis      redis.Config     `koanf:"redis"`
	Env        string           `koanf:"env"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address         string        `koanf:"address"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// EventsConfig configures lifecycle event delivery.
type EventsConfig struct {
	Backend      string `koanf:"backend"`
	RedisChannel string `koanf:"redis_channel"`
	BufferSize   int    `koanf:"buffer_size"`
	Workers      int    `koanf:"workers"`
}

// MiddlewareConfig configures the stock middleware.
type MiddlewareConfig struct {
	CORSOrigins    []string      `koanf:"cors_origins"`
	AuthTokens     []string      `koanf:"auth_tokens"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// defaults are applied before any source is read.
func defaults() map[string]any {
	rd := redis.DefaultConfig()
	return map[string]any{
		"env":                        "development",
		"server.address":             ":8080",
		"server.shutdown_timeout":    "30s",
		"log.level":                  "info",
		"log.format":                 logger.FormatJSON,
		"events.backend":             EventsMemory,
		"events.redis_channel":       "forgecore:events",
		"events.buffer_size":         1024,
		"events.workers":             1,
		"middleware.request_timeout": "30s",
		"telemetry.service_name":     "forgecore",
		"telemetry.sample_ratio":     1.0,
		"redis.pool_size":            rd.PoolSize,
		"redis.min_idle_conns":       rd.MinIdleConns,
		"redis.connect_retries":      rd.ConnectRetries,
		"redis.retry_interval":       rd.RetryInterval.String(),
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	prefix   string
	files    []string
	dotenv   []string
	required bool
}

// WithFile reads a YAML file before the environment. A missing file is
// skipped unless WithRequiredFile is also given.
func WithFile(path string) Option {
	return func(o *options) {
		if path != "" {
			o.files = append(o.files, path)
		}
	}
}

// WithRequiredFile makes missing files given with WithFile an error.
func WithRequiredFile() Option {
	return func(o *options) {
		o.required = true
	}
}

// WithDotenv loads the given .env files into the process environment first.
// Variables already set are not overridden. Missing files are skipped.
func WithDotenv(paths ...string) Option {
	return func(o *options) {
		o.dotenv = append(o.dotenv, paths...)
	}
}

// WithPrefix sets the environment variable prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// Load builds a Config from defaults, YAML files and the environment, in
// increasing precedence, and validates it.
//
// Example:
//
//	cfg, err := config.Load(
//	    config.WithDotenv(".env"),
//	    config.WithFile("config.yaml"),
//	)
func Load(opts ...Option) (*Config, error) {
	o := &options{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(o)
	}

	for _, p := range o.dotenv {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadDotenv, p, err)
		}
	}

	k := koanf.New(".")
	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
	}

	for _, path := range o.files {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) && !o.required {
				continue
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadFile, path, err)
		}
	}

	prefix := o.prefix
	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	// Comma-separated lists from the environment.
	for _, key := range []string{"middleware.cors_origins", "middleware.auth_tokens"} {
		if s, ok := k.Get(key).(string); ok {
			if err := k.Set(key, splitList(s)); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrLoad, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshal, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is empty"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout is negative"))
	}
	switch c.Events.Backend {
	case EventsMemory:
	case EventsRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis events backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("events.backend %q is not one of %s, %s", c.Events.Backend, EventsMemory, EventsRedis))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, errors.New("telemetry.sample_ratio must be within [0, 1]"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether Env is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// MustLoad is Load that exits the process on failure.
func MustLoad(opts ...Option) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	return cfg
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
