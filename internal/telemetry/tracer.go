// Package telemetry configures OpenTelemetry tracing for the chat pipeline.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used by the pipeline spans.
const TracerName = "portfolio-backend"

// InitTracer installs a stdout-exporting tracer provider when enabled.
// The returned func flushes and stops it.
func InitTracer(serviceName string, enabled bool, logger *slog.Logger) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry initialized", slog.String("service", serviceName))
	return tp.Shutdown, nil
}

// Tracer returns the pipeline tracer from the global provider. Without
// InitTracer this is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
