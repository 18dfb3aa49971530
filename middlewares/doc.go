// Package middlewares provides ready-made pipeline stages for forgecore
// applications.
//
// Every constructor returns a forgecore.Middleware. Stages run in the order
// they are registered: the first wraps outermost.
//
// # Request ID
//
// RequestID settles the request ID (an upstream X-Request-ID wins over the
// ID assigned at the edge) and echoes it in the response.
//
//	app := forgecore.New(
//	    forgecore.WithLogger("api", middlewares.RequestIDExtractor()),
//	    forgecore.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover turns a panic in inner stages into a *PanicError so outer stages
// such as Logging and Tracing see a plain error. The kernel recovers panics
// on its own, so Recover is optional.
//
// # Logging
//
// Logging writes one access log record after inner stages return. Failures
// are logged with their category.
//
//	middlewares.Logging(log, middlewares.WithLoggingSkipPaths("/health/live"))
//
// # Auth
//
// Auth short-circuits with an authorization error when the request carries
// no valid token. The handler is not called.
//
//	middlewares.Auth(middlewares.StaticTokens(cfg.Middleware.AuthTokens...))
//
// # Timeout
//
// Timeout bounds inner stages by a deadline and returns *TimeoutError once
// it passes. TimeoutError unwraps to context.DeadlineExceeded, which the
// default error service answers with 504.
//
// # CORS
//
// CORS answers preflight requests from allowed origins with 204 and adds
// the CORS headers to other responses.
//
//	middlewares.CORS(
//	    middlewares.WithAllowOrigins("https://app.example.com"),
//	    middlewares.WithAllowCredentials(),
//	)
//
// # Tracing
//
// Tracing wraps inner stages in an OpenTelemetry server span, continuing
// the trace carried by the request headers.
//
// # Retry
//
// Retry re-runs inner stages for idempotent requests that fail with an
// upstream error.
//
// # Order
//
//	forgecore.WithMiddleware(
//	    middlewares.CORS(),
//	    middlewares.RequestID(),
//	    middlewares.Tracing(),
//	    middlewares.Logging(log),
//	    middlewares.Recover(),
//	    middlewares.Timeout(5*time.Second),
//	    middlewares.Auth(validate),
//	)
package middlewares
