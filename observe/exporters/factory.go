// Package exporters builds OpenTelemetry exporters by name.
//
// Tracing: stdout, otlp, none. Metrics: stdout, otlp, prometheus, none.
// OTLP endpoints come from the standard OTEL_EXPORTER_OTLP_* variables.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrUnknownExporter is returned for an exporter name that is not supported.
var ErrUnknownExporter = errors.New("unknown exporter")

// ErrMissingEndpoint is returned when otlp is selected without an endpoint.
var ErrMissingEndpoint = errors.New("otlp endpoint not configured")

const (
	envEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envTracesEndpoint  = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	envMetricsEndpoint = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

func otlpEndpoint(signalVar string) (string, error) {
	for _, name := range []string{envEndpoint, signalVar} {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set %s or %s", ErrMissingEndpoint, envEndpoint, signalVar)
}

// NewTracingExporter returns the span exporter registered under name.
// "none" and "" return an exporter that discards spans.
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	switch name {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(stdout), stdouttrace.WithoutTimestamps())
	case "otlp":
		if _, err := otlpEndpoint(envTracesEndpoint); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	case "none", "":
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	default:
		return nil, fmt.Errorf("%w: tracing %q", ErrUnknownExporter, name)
	}
}

// NewMetricsReader returns the metric reader registered under name.
// Push exporters are wrapped in a periodic reader; prometheus is pull-based.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)

	switch name {
	case "prometheus":
		reader, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		return reader, nil
	case "stdout":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(stdout))
	case "otlp":
		if _, err := otlpEndpoint(envMetricsEndpoint); err != nil {
			return nil, err
		}
		exp, err = otlpmetricgrpc.New(ctx)
	case "none", "":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
	default:
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s metrics exporter: %w", name, err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}
