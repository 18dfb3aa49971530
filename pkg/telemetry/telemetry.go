package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// ErrDisabled is returned by Init when tracing is turned off in Config.
var ErrDisabled = errors.New("telemetry: tracing disabled")

// Config describes the tracer provider.
type Config struct {
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	PrettyPrint bool    `koanf:"pretty_print"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// Option configures Init.
type Option func(*options)

type options struct {
	exporter sdktrace.SpanExporter
	logger   *slog.Logger
	sync     bool
	global   bool
}

// WithExporter replaces the stdout exporter.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) {
		if exp != nil {
			o.exporter = exp
		}
	}
}

// WithSyncExport exports every span as it ends instead of batching.
func WithSyncExport() Option {
	return func(o *options) {
		o.sync = true
	}
}

// WithoutGlobal keeps the provider out of the otel globals.
func WithoutGlobal() Option {
	return func(o *options) {
		o.global = false
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Init builds a tracer provider for cfg and, unless WithoutGlobal is given,
// installs it and the W3C trace-context propagator as otel globals.
// The caller owns the provider's Shutdown.
//
// Example:
//
//	tp, err := telemetry.Init(cfg.Telemetry, telemetry.WithLogger(log))
//	if err != nil && !errors.Is(err, telemetry.ErrDisabled) {
//	    return err
//	}
func Init(cfg Config, opts ...Option) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	o := &options{logger: logger.NewNope(), global: true}
	for _, opt := range opts {
		opt(o)
	}

	exp := o.exporter
	if exp == nil {
		var sopts []stdouttrace.Option
		if cfg.PrettyPrint {
			sopts = append(sopts, stdouttrace.WithPrettyPrint())
		}
		var err error
		exp, err = stdouttrace.New(sopts...)
		if err != nil {
			return nil, fmt.Errorf("telemetry: create exporter: %w", err)
		}
	}

	name := cfg.ServiceName
	if name == "" {
		name = "forgecore"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", semconv.ServiceName(name)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	export := sdktrace.WithBatcher(exp)
	if o.sync {
		export = sdktrace.WithSyncer(exp)
	}
	tp := sdktrace.NewTracerProvider(
		export,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	if o.global {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	o.logger.Info("tracing initialized", slog.String("service", name))
	return tp, nil
}

// Shutdown returns a shutdown hook flushing and stopping tp.
// A nil provider is a no-op.
func Shutdown(tp *sdktrace.TracerProvider) func(context.Context) error {
	return func(ctx context.Context) error {
		if tp == nil {
			return nil
		}
		return tp.Shutdown(ctx)
	}
}
