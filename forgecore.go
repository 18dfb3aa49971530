package forgecore

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/pkg/events"
	"github.com/dmitrymomot/forgecore/pkg/health"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// Type aliases - public API
type (
	// App wires the router, the kernel and the server runtime.
	App = internal.App

	// Kernel runs a request through the pipeline into the matched route.
	Kernel = internal.Kernel

	// KernelOption configures a Kernel.
	KernelOption = internal.KernelOption

	// Request is the framework's immutable view of an inbound call.
	Request = internal.Request

	// RequestOption configures a Request at construction time.
	RequestOption = internal.RequestOption

	// Response is what handlers and short-circuiting middleware produce.
	Response = internal.Response

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// RouteMatcher resolves the handler for a request.
	RouteMatcher = internal.RouteMatcher

	// RouteMatcherFunc adapts a function to RouteMatcher.
	RouteMatcherFunc = internal.RouteMatcherFunc

	// LegacyRouter is the matching surface adapted by Bridge.
	LegacyRouter = internal.LegacyRouter

	// Mux is the default chi-backed RouteMatcher.
	Mux = internal.Mux

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers and pipeline stages.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// Pipeline is an ordered, immutable middleware sequence.
	Pipeline = internal.Pipeline

	// ErrorService converts a failure into a Response.
	ErrorService = internal.ErrorService

	// ErrorServiceFunc adapts a function to ErrorService.
	ErrorServiceFunc = internal.ErrorServiceFunc

	// ErrorStrategy renders a response for one failure category.
	ErrorStrategy = internal.ErrorStrategy

	// ErrorMatcher selects errors for a custom strategy.
	ErrorMatcher = internal.ErrorMatcher

	// ErrorResolver is the default ErrorService.
	ErrorResolver = internal.ErrorResolver

	// ErrorResolverOption configures an ErrorResolver.
	ErrorResolverOption = internal.ErrorResolverOption

	// Category classifies a failure.
	Category = internal.Category

	// Error is a categorized failure.
	Error = internal.Error

	// ErrorOption configures an Error.
	ErrorOption = internal.ErrorOption

	// FieldError describes one invalid input field.
	FieldError = internal.FieldError

	// ValidationErrors is a collection of field failures.
	ValidationErrors = internal.ValidationErrors

	// PanicError is a recovered panic.
	PanicError = internal.PanicError

	// Extractor tries multiple sources in order.
	Extractor = internal.Extractor

	// ExtractorSource reads one candidate value from a request.
	ExtractorSource = internal.ExtractorSource

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor

	// Event is a lifecycle notification.
	Event = events.Event

	// EventPublisher delivers lifecycle events.
	EventPublisher = events.Publisher
)

// Failure categories.
const (
	CategoryValidation    = internal.CategoryValidation
	CategoryNotFound      = internal.CategoryNotFound
	CategoryAuthorization = internal.CategoryAuthorization
	CategoryUpstream      = internal.CategoryUpstream
	CategoryUnexpected    = internal.CategoryUnexpected
	CategoryCancelled     = internal.CategoryCancelled

	StatusClientClosedRequest = internal.StatusClientClosedRequest
)

// Sentinel errors.
var (
	ErrRouteNotFound    = internal.ErrRouteNotFound
	ErrMethodNotAllowed = internal.ErrMethodNotAllowed
	ErrNilResponse      = internal.ErrNilResponse
	ErrNilRequest       = internal.ErrNilRequest
	ErrRequestReplayed  = internal.ErrRequestReplayed
	ErrInvalidStatus    = internal.ErrInvalidStatus
	ErrStartupHook      = internal.ErrStartupHook
	ErrNilApp           = internal.ErrNilApp
)

// Constructors

// New creates a new application with the given options.
//
// Example:
//
//	app := forgecore.New(
//	    forgecore.WithMiddleware(middlewares.RequestID(), middlewares.Logging(log)),
//	    forgecore.WithHandlers(handlers.NewUsers(repo)),
//	)
//
//	err := app.Run(":8080", forgecore.Logger(log))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// Run starts an HTTP server for app and blocks until shutdown.
func Run(app *App, opts ...RunOption) error {
	return internal.Run(app, opts...)
}

// NewKernel creates a standalone kernel dispatching to router.
func NewKernel(router RouteMatcher, opts ...KernelOption) *Kernel {
	return internal.NewKernel(router, opts...)
}

// NewMux creates an empty chi-backed router.
func NewMux() *Mux {
	return internal.NewMux()
}

// NewPipeline creates a pipeline from mw in registration order.
func NewPipeline(mw ...Middleware) *Pipeline {
	return internal.NewPipeline(mw...)
}

// NewRequest creates a Request for the given method and target.
func NewRequest(method, target string, opts ...RequestOption) *Request {
	return internal.NewRequest(method, target, opts...)
}

// NewErrorResolver creates the default error service.
func NewErrorResolver(opts ...ErrorResolverOption) *ErrorResolver {
	return internal.NewErrorResolver(opts...)
}

// WithMatcher registers a custom strategy on an ErrorResolver.
func WithMatcher(match ErrorMatcher, s ErrorStrategy) ErrorResolverOption {
	return internal.WithMatcher(match, s)
}

// WithCategoryStrategy replaces an ErrorResolver's strategy for a category.
func WithCategoryStrategy(c Category, s ErrorStrategy) ErrorResolverOption {
	return internal.WithCategoryStrategy(c, s)
}

// Bridge adapts a LegacyRouter to RouteMatcher.
func Bridge(legacy LegacyRouter) RouteMatcher {
	return internal.Bridge(legacy)
}

// ChainMatchers tries each matcher in order and returns the first match.
func ChainMatchers(matchers ...RouteMatcher) RouteMatcher {
	return internal.ChainMatchers(matchers...)
}

// App options

// WithMiddleware adds global middleware to the application.
// Middleware runs in the order provided: the first wraps outermost.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithErrorService replaces the default error service.
func WithErrorService(s ErrorService) Option {
	return internal.WithErrorService(s)
}

// WithErrorMatcher registers a custom strategy on the default error service.
func WithErrorMatcher(match ErrorMatcher, s ErrorStrategy) Option {
	return internal.WithErrorMatcher(match, s)
}

// WithErrorStrategy replaces the default strategy for a category.
func WithErrorStrategy(c Category, s ErrorStrategy) Option {
	return internal.WithErrorStrategy(c, s)
}

// WithEventPublisher adds a lifecycle event publisher.
func WithEventPublisher(p ...EventPublisher) Option {
	return internal.WithEventPublisher(p...)
}

// WithRouteMatcher adds a route matcher consulted after the app's own routes.
//
// Example:
//
//	forgecore.WithRouteMatcher(forgecore.Bridge(legacy))
func WithRouteMatcher(m RouteMatcher) Option {
	return internal.WithRouteMatcher(m)
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
	return internal.WithHealthChecks(opts...)
}

// WithLogger creates a logger with a component name and optional extractors.
//
// Example:
//
//	forgecore.WithLogger("api", middlewares.RequestIDExtractor())
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithHTTPTracing wraps the HTTP edge in an OpenTelemetry handler.
func WithHTTPTracing(operation string, opts ...otelhttp.Option) Option {
	return internal.WithHTTPTracing(operation, opts...)
}

// Health options

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithHealthTimeout bounds each readiness check.
func WithHealthTimeout(d time.Duration) HealthOption {
	return internal.WithHealthTimeout(d)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Address sets the HTTP server address. Defaults to ":8080".
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the runtime logger. Defaults to the app logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook registers a function to run before the server accepts
// connections. Hooks run in registration order.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function. Hooks run in reverse
// registration order.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a custom base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Kernel options

// WithKernelMiddleware sets the kernel's global middleware.
func WithKernelMiddleware(mw ...Middleware) KernelOption {
	return internal.WithKernelMiddleware(mw...)
}

// WithKernelErrorService sets the kernel's error service.
func WithKernelErrorService(s ErrorService) KernelOption {
	return internal.WithKernelErrorService(s)
}

// WithKernelPublisher sets the kernel's event publisher.
func WithKernelPublisher(p EventPublisher) KernelOption {
	return internal.WithKernelPublisher(p)
}

// WithKernelLogger sets the kernel logger.
func WithKernelLogger(l *slog.Logger) KernelOption {
	return internal.WithKernelLogger(l)
}

// Responses

// Text creates a text/plain response.
func Text(status int, s string) *Response { return internal.Text(status, s) }

// HTML creates a text/html response.
func HTML(status int, s string) *Response { return internal.HTML(status, s) }

// JSON encodes v as the response body.
func JSON(status int, v any) (*Response, error) { return internal.JSON(status, v) }

// NoContent creates an empty response.
func NoContent(status int) *Response { return internal.NoContent(status) }

// Blob creates a response with an explicit content type.
func Blob(status int, contentType string, b []byte) *Response {
	return internal.Blob(status, contentType, b)
}

// Stream creates a streaming response.
func Stream(status int, contentType string, rd io.Reader) *Response {
	return internal.Stream(status, contentType, rd)
}

// NewResponse creates a response, validating the status code.
func NewResponse(status int, header http.Header, body []byte) (*Response, error) {
	return internal.NewResponse(status, header, body)
}

// Redirect creates a redirect response.
func Redirect(status int, location string) *Response { return internal.Redirect(status, location) }

// Errors

// ErrBadRequest creates a 400 validation failure.
func ErrBadRequest(msg string, opts ...ErrorOption) *Error { return internal.ErrBadRequest(msg, opts...) }

// ErrValidation wraps field errors (422).
func ErrValidation(fields ValidationErrors, opts ...ErrorOption) *Error {
	return internal.ErrValidation(fields, opts...)
}

// ErrUnauthorized creates a 401 authorization failure.
func ErrUnauthorized(msg string, opts ...ErrorOption) *Error {
	return internal.ErrUnauthorized(msg, opts...)
}

// ErrForbidden creates a 403 authorization failure.
func ErrForbidden(msg string, opts ...ErrorOption) *Error { return internal.ErrForbidden(msg, opts...) }

// ErrNotFound creates a 404 failure.
func ErrNotFound(msg string, opts ...ErrorOption) *Error { return internal.ErrNotFound(msg, opts...) }

// ErrConflict creates a 409 failure.
func ErrConflict(msg string, opts ...ErrorOption) *Error { return internal.ErrConflict(msg, opts...) }

// ErrUpstream wraps a downstream service failure (502).
func ErrUpstream(err error, opts ...ErrorOption) *Error { return internal.ErrUpstream(err, opts...) }

// ErrUnprocessable creates a 422 validation failure.
func ErrUnprocessable(msg string, opts ...ErrorOption) *Error {
	return internal.ErrUnprocessable(msg, opts...)
}

// ErrServiceUnavailable creates a 503 upstream failure.
func ErrServiceUnavailable(msg string, opts ...ErrorOption) *Error {
	return internal.ErrServiceUnavailable(msg, opts...)
}

// NewError creates a categorized failure with an explicit status code.
func NewError(c Category, code int, msg string, opts ...ErrorOption) *Error {
	return internal.NewError(c, code, msg, opts...)
}

// ErrInternal creates a 500 failure.
func ErrInternal(msg string, opts ...ErrorOption) *Error { return internal.ErrInternal(msg, opts...) }

// WithCause sets the underlying cause of an Error.
func WithCause(err error) ErrorOption { return internal.WithCause(err) }

// WithErrorCode sets an application-specific error code.
func WithErrorCode(code string) ErrorOption { return internal.WithErrorCode(code) }

// WithTitle sets the user-facing title.
func WithTitle(title string) ErrorOption { return internal.WithTitle(title) }

// WithDetail sets the user-facing detail.
func WithDetail(detail string) ErrorOption { return internal.WithDetail(detail) }

// AsError extracts an *Error from err's chain, or nil.
func AsError(err error) *Error { return internal.AsError(err) }

// CategoryOf classifies err.
func CategoryOf(err error) Category { return internal.CategoryOf(err) }

// Request helpers

// Param returns a typed path parameter.
func Param[T internal.Scalar](r *Request, name string) T { return internal.ParamAs[T](r, name) }

// Query returns a typed query parameter.
func Query[T internal.Scalar](r *Request, name string) T { return internal.QueryAs[T](r, name) }

// QueryDefault returns a typed query parameter or def.
func QueryDefault[T internal.Scalar](r *Request, name string, def T) T {
	return internal.QueryDefault(r, name, def)
}

// Value retrieves a typed value from the request bag.
func Value[T any](r *Request, key string) T { return internal.Value[T](r, key) }

// HTTPHandler adapts a net/http handler into a HandlerFunc.
func HTTPHandler(h http.Handler) HandlerFunc { return internal.HTTPHandler(h) }

// FromHTTPRequest converts a net/http request into a Request.
func FromHTTPRequest(hr *http.Request) *Request { return internal.FromHTTPRequest(hr) }

// ToHTTPRequest converts a Request back into a net/http request.
func ToHTTPRequest(r *Request) (*http.Request, error) { return internal.ToHTTPRequest(r) }

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string { return internal.RequestIDFromContext(ctx) }

// WithRequestHeader adds a header value to a new Request.
func WithRequestHeader(name, value string) RequestOption {
	return internal.WithRequestHeader(name, value)
}

// WithRequestBody sets the body stream of a new Request.
func WithRequestBody(rd io.Reader) RequestOption { return internal.WithRequestBody(rd) }

// WithRequestContext sets the base context of a new Request.
func WithRequestContext(ctx context.Context) RequestOption {
	return internal.WithRequestContext(ctx)
}

// WithRequestID overrides the generated request ID.
func WithRequestID(id string) RequestOption { return internal.WithRequestID(id) }

// Extractors

// NewExtractor creates an Extractor that tries the given sources in order.
//
// Example:
//
//	tenant := forgecore.NewExtractor(
//	    forgecore.FromHeader("X-Tenant"),
//	    forgecore.FromQuery("tenant"),
//	)
func NewExtractor(sources ...ExtractorSource) Extractor { return internal.NewExtractor(sources...) }

// FromHeader reads a request header.
func FromHeader(name string) ExtractorSource { return internal.FromHeader(name) }

// FromQuery reads a query parameter.
func FromQuery(name string) ExtractorSource { return internal.FromQuery(name) }

// FromParam reads a path parameter.
func FromParam(name string) ExtractorSource { return internal.FromParam(name) }

// FromCookie reads a cookie.
func FromCookie(name string) ExtractorSource { return internal.FromCookie(name) }

// FromValue reads a value stored on the request bag.
func FromValue(key string) ExtractorSource { return internal.FromValue(key) }

// FromBearerToken reads a Bearer token from the Authorization header.
func FromBearerToken() ExtractorSource { return internal.FromBearerToken() }
