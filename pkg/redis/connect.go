package redis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// Config describes a Redis connection. It is loaded by pkg/config under the
// "redis" key, e.g. FORGE_REDIS__URL.
type Config struct {
	URL            string        `koanf:"url"`
	PoolSize       int           `koanf:"pool_size"`
	MinIdleConns   int           `koanf:"min_idle_conns"`
	MaxIdleTime    time.Duration `koanf:"max_idle_time"`
	MaxActiveTime  time.Duration `koanf:"max_active_time"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	DialTimeout    time.Duration `koanf:"dial_timeout"`
	ConnectRetries int           `koanf:"connect_retries"`
	RetryInterval  time.Duration `koanf:"retry_interval"`
}

// DefaultConfig returns the connection defaults. URL is left empty.
func DefaultConfig() Config {
	return Config{
		PoolSize:       10,
		MinIdleConns:   5,
		MaxIdleTime:    10 * time.Minute,
		MaxActiveTime:  30 * time.Minute,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   3 * time.Second,
		DialTimeout:    5 * time.Second,
		ConnectRetries: 3,
		RetryInterval:  time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PoolSize <= 0 {
		c.PoolSize = d.PoolSize
	}
	if c.MinIdleConns < 0 {
		c.MinIdleConns = 0
	}
	if c.MaxIdleTime <= 0 {
		c.MaxIdleTime = d.MaxIdleTime
	}
	if c.MaxActiveTime <= 0 {
		c.MaxActiveTime = d.MaxActiveTime
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = 1
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}
	return c
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger logs failed connection attempts.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open connects to Redis, retrying with a linearly growing delay until the
// first PING succeeds. Both redis:// and rediss:// (TLS) URLs are accepted.
//
// Example:
//
//	client, err := redis.Open(ctx, cfg.Redis, redis.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func Open(ctx context.Context, cfg Config, opts ...Option) (redis.UniversalClient, error) {
	ropts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	o := &options{logger: logger.NewNope()}
	for _, opt := range opts {
		opt(o)
	}

	cfg = cfg.withDefaults()
	return connect(ctx, ropts, cfg.ConnectRetries, cfg.RetryInterval, o.logger)
}

// clientOptions validates the URL and maps cfg onto go-redis options.
func clientOptions(cfg Config) (*redis.Options, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(cfg.URL, "redis://") && !strings.HasPrefix(cfg.URL, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	ropts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	cfg = cfg.withDefaults()
	ropts.PoolSize = cfg.PoolSize
	ropts.MinIdleConns = cfg.MinIdleConns
	ropts.ConnMaxIdleTime = cfg.MaxIdleTime
	ropts.ConnMaxLifetime = cfg.MaxActiveTime
	ropts.ReadTimeout = cfg.ReadTimeout
	ropts.WriteTimeout = cfg.WriteTimeout
	ropts.DialTimeout = cfg.DialTimeout
	return ropts, nil
}

func connect(ctx context.Context, opts *redis.Options, attempts int, interval time.Duration, log *slog.Logger) (redis.UniversalClient, error) {
	attempts = max(attempts, 1)

	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)
		lastErr = client.Ping(ctx).Err()
		if lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		log.WarnContext(ctx, "redis connection attempt failed",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", attempts),
			slog.String("error", lastErr.Error()),
		)
		if i == attempts-1 {
			break
		}
		if err := wait(ctx, time.Duration(i+1)*interval); err != nil {
			return nil, errors.Join(ErrConnectionFailed, err)
		}
	}

	return nil, errors.Join(ErrConnectionFailed, lastErr)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
