package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// DefaultRequestIDHeaders are the headers checked (in order) for an existing request ID.
var DefaultRequestIDHeaders = internal.DefaultRequestIDHeaders

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	Generator      func() string // ID generator, used when Regenerate is set
	ResponseHeader string        // Response header name
	Headers        []string      // Headers to check for an upstream ID (in order)
	Regenerate     bool          // Ignore the ID assigned at the edge
}

// RequestIDOption configures RequestIDConfig.
type RequestIDOption func(*RequestIDConfig)

// WithRequestIDHeaders sets the headers to check for upstream request IDs.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.Headers = headers
	}
}

// WithRequestIDGenerator sets a custom ID generator and makes the middleware
// replace IDs that did not come from an upstream header.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		if gen != nil {
			cfg.Generator = gen
			cfg.Regenerate = true
		}
	}
}

// WithRequestIDResponseHeader sets the response header name.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		if header != "" {
			cfg.ResponseHeader = header
		}
	}
}

// RequestID returns middleware that settles the request ID and echoes it in
// a response header. An ID from the configured headers wins; otherwise the
// ID assigned when the request was built is kept.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &RequestIDConfig{
		Headers:        DefaultRequestIDHeaders,
		Generator:      uuid.NewString,
		ResponseHeader: "X-Request-ID",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			var id string
			for _, h := range cfg.Headers {
				if v := r.Header(h); v != "" {
					id = v
					break
				}
			}
			if id == "" && cfg.Regenerate {
				id = cfg.Generator()
			}
			r = r.WithID(id)

			resp, err := next(r)
			if err != nil || resp == nil {
				return resp, err
			}
			return resp.WithHeader(cfg.ResponseHeader, r.ID()), nil
		}
	}
}

// GetRequestID returns the request ID.
func GetRequestID(r *internal.Request) string {
	return r.ID()
}

// RequestIDExtractor returns a logger.ContextExtractor adding "request_id"
// to every record logged with a request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := internal.RequestIDFromContext(ctx); v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
