// Package telemetry bootstraps OpenTelemetry tracing.
//
// [Init] creates an SDK tracer provider that exports to stdout by default and
// registers it globally, so middlewares.Tracing picks it up without further
// wiring. Tests swap the exporter for an in-memory one with [WithExporter].
package telemetry
