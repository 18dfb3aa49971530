package internal

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmitrymomot/forgecore/pkg/events"
	"github.com/dmitrymomot/forgecore/pkg/health"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware to the application.
// Middleware runs in the order provided: the first wraps outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithErrorService replaces the default error service.
// Matchers and strategies given with WithErrorMatcher or WithErrorStrategy
// are ignored when a custom service is set.
//
// Example:
//
//	forgecore.WithErrorService(forgecore.ErrorServiceFunc(func(r *forgecore.Request, err error) (*forgecore.Response, error) {
//	    return forgecore.Text(500, "oops"), nil
//	}))
func WithErrorService(s ErrorService) Option {
	return func(a *App) {
		if s != nil {
			a.errors = s
		}
	}
}

// WithErrorMatcher registers a custom strategy on the default error
// service. Matchers are tried in registration order before the category
// strategies.
//
// Example:
//
//	forgecore.WithErrorMatcher(
//	    func(err error) bool { return errors.Is(err, sql.ErrNoRows) },
//	    func(r *forgecore.Request, err error) (*forgecore.Response, error) {
//	        return forgecore.Text(404, "Not Found"), nil
//	    },
//	)
func WithErrorMatcher(match ErrorMatcher, s ErrorStrategy) Option {
	return func(a *App) {
		a.resolverOpts = append(a.resolverOpts, WithMatcher(match, s))
	}
}

// WithErrorStrategy replaces the default strategy for a category.
func WithErrorStrategy(c Category, s ErrorStrategy) Option {
	return func(a *App) {
		a.resolverOpts = append(a.resolverOpts, WithCategoryStrategy(c, s))
	}
}

// WithEventPublisher adds a lifecycle event publisher.
// Several publishers receive every event.
func WithEventPublisher(p ...events.Publisher) Option {
	return func(a *App) {
		for _, pub := range p {
			if pub != nil {
				a.publishers = append(a.publishers, pub)
			}
		}
	}
}

// WithRouteMatcher adds a route matcher consulted after the app's own
// routes. Use it with Bridge to keep serving a legacy router.
//
// Example:
//
//	forgecore.New(
//	    forgecore.WithHandlers(handlers.NewUsers(repo)),
//	    forgecore.WithRouteMatcher(forgecore.Bridge(legacy)),
//	)
func WithRouteMatcher(m RouteMatcher) Option {
	return func(a *App) {
		if m != nil {
			a.matcher = m
		}
	}
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	forgecore.WithHealthChecks(
//	    forgecore.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			timeout:       defaultHealthTimeout,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.health = cfg
	}
}

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
// Extractors pull values from context (e.g., request_id).
//
// Example:
//
//	forgecore.New(
//	    forgecore.WithLogger("api", middlewares.RequestIDExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(
			logger.WithComponent(component),
			logger.WithContextExtractors(extractors...),
		)
	}
}

// WithCustomLogger sets a fully custom logger.
//
// Example:
//
//	forgecore.New(
//	    forgecore.WithCustomLogger(logger.New(logger.WithConfig(cfg.Log))),
//	)
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithHTTPTracing wraps the app's HTTP edge in an OpenTelemetry handler.
// It records transport-level spans and metrics; middlewares.Tracing covers
// the pipeline.
func WithHTTPTracing(operation string, opts ...otelhttp.Option) Option {
	return func(a *App) {
		if operation == "" {
			operation = "forgecore"
		}
		a.httpTracing = &httpTracing{operation: operation, opts: opts}
	}
}
