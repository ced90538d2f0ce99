// Package observability wires OpenTelemetry tracing for schema lookups.
//
// Without Initialize, spans go to the global no-op provider, so library
// users pay nothing unless they install a provider themselves.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	ExporterType   string // "stdout" or "none"
	Writer         io.Writer
	BatchTimeout   time.Duration
}

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// DefaultConfig returns a configuration exporting every span to stderr
func DefaultConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "seaschema",
		ServiceVersion: "dev",
		Environment:    getEnv("ENVIRONMENT", "development"),
		SamplingRate:   1.0,
		ExporterType:   getEnv("TRACING_EXPORTER", "stdout"),
		BatchTimeout:   5 * time.Second,
	}
}

// Initialize installs a global tracer provider. Calling it again replaces
// the previous provider after shutting it down.
func Initialize(ctx context.Context, config TracingConfig) error {
	if config.ExporterType == "none" {
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch config.ExporterType {
	case "stdout", "":
		w := config.Writer
		if w == nil {
			w = os.Stderr
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
	default:
		return fmt.Errorf("unsupported trace exporter %q", config.ExporterType)
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Second
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
	)
	return install(ctx, tp)
}

// install makes tp the global provider
func install(ctx context.Context, tp *sdktrace.TracerProvider) error {
	providerMu.Lock()
	prev := provider
	provider = tp
	providerMu.Unlock()

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if prev != nil {
		return prev.Shutdown(ctx)
	}
	return nil
}

// Shutdown flushes and stops the provider installed by Initialize
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	tp := provider
	provider = nil
	providerMu.Unlock()

	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
