package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/forgecore/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	// StatusHealthy indicates all checks passed.
	StatusHealthy = "healthy"
	// StatusUnhealthy indicates one or more checks failed.
	StatusUnhealthy = "unhealthy"
)

// CheckFunc is a single readiness probe.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to probes.
type Checks map[string]CheckFunc

// Report is the aggregated outcome of a readiness run.
type Report struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the outcome of one probe.
type Check struct {
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Err returns nil for a healthy report, otherwise an error wrapping
// ErrCheckFailed that names the failing checks in a stable order.
func (r *Report) Err() error {
	if r.Healthy() {
		return nil
	}
	names := make([]string, 0, len(r.Checks))
	for name, c := range r.Checks {
		if c.Status == StatusUnhealthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %s", name, r.Checks[name].Error))
	}
	return fmt.Errorf("%w: %w", ErrCheckFailed, errors.Join(errs...))
}

// config holds health check configuration.
type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures health check behavior.
type Option func(*config)

// WithTimeout sets the deadline shared by all checks of one run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Run executes all checks in parallel under one deadline.
// A check that panics or outlives the deadline is reported unhealthy.
func Run(ctx context.Context, checks Checks, opts ...Option) *Report {
	return runChecks(ctx, checks, newConfig(opts...))
}

func runChecks(ctx context.Context, checks Checks, cfg *config) *Report {
	if len(checks) == 0 {
		return &Report{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]Check, len(checks))
		healthy = true
	)

	// Checks never fail the group: every result must be collected.
	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			err := probe(ctx, check)
			result := Check{Status: StatusHealthy, Duration: time.Since(start)}
			if err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			results[name] = result
			if err != nil {
				healthy = false
			}
			return nil
		})
	}
	_ = g.Wait()

	status := StatusHealthy
	if !healthy {
		status = StatusUnhealthy
	}
	return &Report{Status: status, Checks: results}
}

// probe runs check, converting panics and deadline overruns into errors.
func probe(ctx context.Context, check CheckFunc) (err error) {
	if check == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- fmt.Errorf("health: check panicked: %v", v)
			}
		}()
		done <- check(ctx)
	}()

	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		return ErrCheckTimeout
	}
}
