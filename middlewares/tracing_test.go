package middlewares_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/forgecore/internal"
	"github.com/dmitrymomot/forgecore/middlewares"
)

func newTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })
	return tp, exp
}

func attrValue(span tracetest.SpanStub, key string) (string, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracing(t *testing.T) {
	t.Parallel()

	t.Run("records server span", func(t *testing.T) {
		t.Parallel()

		tp, exp := newTracer(t)
		var inner trace.SpanContext
		h := middlewares.Tracing(middlewares.WithTracerProvider(tp))(func(r *internal.Request) (*internal.Response, error) {
			inner = trace.SpanContextFromContext(r.Context())
			return okHandler(r)
		})

		_, err := h(newRequest("GET", "/users", internal.WithRequestID("r-1")))
		require.NoError(t, err)

		spans := exp.GetSpans()
		require.Len(t, spans, 1)
		span := spans[0]
		require.Equal(t, "GET /users", span.Name)
		require.Equal(t, trace.SpanKindServer, span.SpanKind)
		require.Equal(t, span.SpanContext.SpanID(), inner.SpanID())

		v, ok := attrValue(span, "http.response.status_code")
		require.True(t, ok)
		require.Equal(t, "200", v)
		v, _ = attrValue(span, "forgecore.request_id")
		require.Equal(t, "r-1", v)
	})

	t.Run("marks failures", func(t *testing.T) {
		t.Parallel()

		tp, exp := newTracer(t)
		h := middlewares.Tracing(middlewares.WithTracerProvider(tp))(failWith(errors.New("db down")))

		_, err := h(newRequest("GET", "/"))
		require.Error(t, err)

		span := exp.GetSpans()[0]
		require.Equal(t, codes.Error, span.Status.Code)
		require.Equal(t, "unexpected", span.Status.Description)
		require.NotEmpty(t, span.Events)
	})

	t.Run("continues incoming trace", func(t *testing.T) {
		t.Parallel()

		tp, exp := newTracer(t)
		h := middlewares.Tracing(
			middlewares.WithTracerProvider(tp),
			middlewares.WithPropagator(propagation.TraceContext{}),
			middlewares.WithSpanName(func(*internal.Request) string { return "custom" }),
		)(okHandler)

		const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
		_, err := h(newRequest("GET", "/", internal.WithRequestHeader("Traceparent", parent)))
		require.NoError(t, err)

		span := exp.GetSpans()[0]
		require.Equal(t, "custom", span.Name)
		require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext.TraceID().String())
		require.Equal(t, "00f067aa0ba902b7", span.Parent.SpanID().String())
	})
}
