package middlewares

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/forgecore/internal"
)

const tracerName = "github.com/dmitrymomot/forgecore/middlewares"

// TracingConfig configures the tracing middleware.
type TracingConfig struct {
	Provider   trace.TracerProvider
	Propagator propagation.TextMapPropagator
	SpanName   func(r *internal.Request) string
}

// TracingOption configures TracingConfig.
type TracingOption func(*TracingConfig)

// WithTracerProvider sets the tracer provider. Defaults to the otel global.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(cfg *TracingConfig) {
		if tp != nil {
			cfg.Provider = tp
		}
	}
}

// WithPropagator sets the propagator used to read the incoming trace
// context. Defaults to the otel global.
func WithPropagator(p propagation.TextMapPropagator) TracingOption {
	return func(cfg *TracingConfig) {
		if p != nil {
			cfg.Propagator = p
		}
	}
}

// WithSpanName sets the span name formatter. Defaults to "METHOD path".
func WithSpanName(fn func(r *internal.Request) string) TracingOption {
	return func(cfg *TracingConfig) {
		if fn != nil {
			cfg.SpanName = fn
		}
	}
}

// Tracing returns middleware that wraps inner stages in a server span.
// The incoming trace context is read from the request headers; inner stages
// see the span through the request context.
func Tracing(opts ...TracingOption) internal.Middleware {
	cfg := &TracingConfig{
		SpanName: func(r *internal.Request) string { return r.Method() + " " + r.Path() },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			tp, prop := cfg.Provider, cfg.Propagator
			if tp == nil {
				tp = otel.GetTracerProvider()
			}
			if prop == nil {
				prop = otel.GetTextMapPropagator()
			}

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Headers()))
			ctx, span := tp.Tracer(tracerName).Start(ctx, cfg.SpanName(r),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method()),
					attribute.String("url.path", r.Path()),
					attribute.String("forgecore.request_id", r.ID()),
				),
			)
			defer span.End()

			resp, err := next(r.WithContext(ctx))
			switch {
			case err != nil:
				category := internal.CategoryOf(err)
				span.SetAttributes(attribute.String("forgecore.error.category", string(category)))
				span.RecordError(err)
				span.SetStatus(codes.Error, string(category))
			case resp != nil:
				span.SetAttributes(attribute.Int("http.response.status_code", resp.Status()))
				if resp.Status() >= 500 {
					span.SetStatus(codes.Error, "")
				}
			}
			return resp, err
		}
	}
}
