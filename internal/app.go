package internal

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmitrymomot/forgecore/pkg/events"
	"github.com/dmitrymomot/forgecore/pkg/health"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App wires the router, the kernel and the server runtime together.
// App is immutable after creation: all configuration is done via New().
type App struct {
	kernel       *Kernel
	handler      http.Handler
	errors       ErrorService
	matcher      RouteMatcher
	publisher    events.Publisher
	logger       *slog.Logger
	health       *healthConfig
	httpTracing  *httpTracing
	middlewares  []Middleware
	handlers     []Handler
	resolverOpts []ErrorResolverOption
	publishers   []events.Publisher
}

// New creates a new application with the given options.
//
// Example:
//
//	app := forgecore.New(
//	    forgecore.WithMiddleware(middlewares.RequestID(), middlewares.Logging(log)),
//	    forgecore.WithHandlers(
//	        handlers.NewUsers(repo),
//	        handlers.NewPages(repo),
//	    ),
//	)
func New(opts ...Option) *App {
	a := &App{
		logger: logger.NewNope(), // Default: noop logger (before options)
	}

	for _, opt := range opts {
		opt(a)
	}

	switch len(a.publishers) {
	case 0:
		a.publisher = events.Nop()
	case 1:
		a.publisher = a.publishers[0]
	default:
		a.publisher = events.Multi(a.publishers...)
	}

	if a.errors == nil {
		a.errors = NewErrorResolver(a.resolverOpts...)
	}

	a.kernel = NewKernel(a.setupRoutes(),
		WithKernelMiddleware(a.middlewares...),
		WithKernelErrorService(a.errors),
		WithKernelPublisher(a.publisher),
		WithKernelLogger(a.logger),
	)

	a.handler = a.kernel
	if a.httpTracing != nil {
		a.handler = otelhttp.NewHandler(a.kernel, a.httpTracing.operation, a.httpTracing.opts...)
	}
	return a
}

// Kernel returns the request kernel.
func (a *App) Kernel() *Kernel {
	return a.kernel
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Publisher returns the lifecycle event publisher.
func (a *App) Publisher() events.Publisher {
	return a.publisher
}

// Handle processes r through the kernel. It always returns a Response.
func (a *App) Handle(r *Request) *Response {
	return a.kernel.Handle(r)
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Run starts an HTTP server for the app on addr and blocks until shutdown.
//
// Example:
//
//	err := app.Run(":8080", forgecore.Logger(log), forgecore.ShutdownHook(bus.Shutdown()))
func (a *App) Run(addr string, opts ...RunOption) error {
	return Run(a, append(opts, Address(addr))...)
}

// setupRoutes registers health endpoints and handler routes on a fresh Mux
// and returns the matcher the kernel dispatches to.
func (a *App) setupRoutes() RouteMatcher {
	mux := NewMux()
	r := mux.Routes()

	if a.health != nil {
		r.GET(a.health.livenessPath, HTTPHandler(health.LivenessHandler()))
		r.GET(a.health.readinessPath, HTTPHandler(health.ReadinessHandler(a.health.checks,
			health.WithTimeout(a.health.timeout),
			health.WithLogger(a.logger),
		)))
	}

	for _, h := range a.handlers {
		h.Routes(r)
	}

	if a.matcher == nil {
		return mux
	}
	return ChainMatchers(mux, a.matcher)
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
	timeout       time.Duration
}

// Default health check settings.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
	defaultHealthTimeout = 5 * time.Second
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithHealthTimeout bounds each readiness check. Defaults to 5 seconds.
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(c *healthConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	forgecore.WithReadinessCheck("redis", redis.Healthcheck(client))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if name != "" && fn != nil {
			c.checks[name] = fn
		}
	}
}

type httpTracing struct {
	operation string
	opts      []otelhttp.Option
}
