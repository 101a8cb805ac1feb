package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

const defaultServiceName = "gallery"

// TracingConfig selects the span exporter and sampler.
type TracingConfig struct {
	// ServiceName is used in the resource (default: gallery).
	ServiceName string
	// Exporter is "otlp", "stdout", or empty to disable tracing.
	Exporter string
	// Sampler and SamplerArg follow OTEL_TRACES_SAMPLER / OTEL_TRACES_SAMPLER_ARG.
	Sampler    string
	SamplerArg string
}

// newResource builds a single-schema resource; merging with resource.Default() can fail on
// Schema URL conflicts between semconv versions.
func newResource(serviceName string) *resource.Resource {
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
}

// NewTracerProvider creates a TracerProvider when tracing is enabled.
// When cfg.Exporter is empty or unknown, returns (nil, nil).
func NewTracerProvider(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	var exp sdktrace.SpanExporter

	switch cfg.Exporter {
	case "otlp":
		otlpExp, err := newOTLPTraceExporter(ctx)
		if err != nil {
			return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
		}

		exp = otlpExp
	case "stdout":
		stdoutExp, err := newStdoutTraceExporter()
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}

		exp = stdoutExp
	default:
		//nolint:nilnil // intentional: tracing disabled, caller checks for nil
		return nil, nil
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(newResource(cfg.ServiceName)),
		sdktrace.WithSampler(newSampler(cfg.Sampler, cfg.SamplerArg)),
		sdktrace.WithBatcher(exp),
	), nil
}

// ShutdownTracerProvider flushes and shuts down the TracerProvider. Safe to call with nil.
func ShutdownTracerProvider(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}

	return nil
}
