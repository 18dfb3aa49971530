// Package logger builds log/slog loggers.
//
// [New] produces a JSON (or text) logger at a configured level, optionally
// fanning records out to Sentry when a DSN is present:
//
//	log := logger.New(
//	    logger.WithConfig(cfg.Log),
//	    logger.WithComponent("api"),
//	    logger.WithContextExtractors(middlewares.RequestIDExtractor()),
//	)
//
// Context extractors add request-scoped attributes at log time, so any call
// using a *Context method (InfoContext, ErrorContext) carries them:
//
//	log.InfoContext(r.Context(), "order placed")
//	// {"level":"INFO","msg":"order placed","component":"api","request_id":"..."}
//
// Sentry integration: errors create Sentry issues, warnings and errors are
// kept as Sentry logs (errors only when MinLevel is "error"). If the SDK fails
// to start, the logger keeps working locally.
//
// [NewNope] returns a logger that discards output and is the default for
// every component that accepts a logger.
package logger
