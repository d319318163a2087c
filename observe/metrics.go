package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records request pipeline metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records a finished logical call.
	RecordRequest(ctx context.Context, meta RequestMeta, outcome Outcome, duration time.Duration, err error)

	// RecordRetry records one re-attempt. reason is "backoff" or "retry_after".
	RecordRetry(ctx context.Context, meta RequestMeta, reason string)

	// RecordCircuitTransition records a breaker state change for target.
	RecordCircuitTransition(ctx context.Context, target, from, to string)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	retryCount   metric.Int64Counter
	circuitCount metric.Int64Counter
}

// NewMetrics creates the request instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"clickup.request.total",
		metric.WithDescription("Total number of logical API calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"clickup.request.errors",
		metric.WithDescription("Logical API calls that ended in an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"clickup.request.duration_ms",
		metric.WithDescription("Logical API call duration including retries"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"clickup.request.retries",
		metric.WithDescription("Re-attempts made by the resilience pipeline"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	circuitCount, err := meter.Int64Counter(
		"clickup.circuit.transitions",
		metric.WithDescription("Circuit breaker state changes"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		retryCount:   retryCount,
		circuitCount: circuitCount,
	}, nil
}

func requestAttrs(meta RequestMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", meta.Method),
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("clickup.operation", meta.Operation))
	}
	return attrs
}

func (m *metricsImpl) RecordRequest(ctx context.Context, meta RequestMeta, outcome Outcome, duration time.Duration, err error) {
	attrs := requestAttrs(meta)
	if outcome.StatusCode != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", outcome.StatusCode))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, metric.WithAttributes(
			append(attrs, attribute.String("error.type", outcome.ErrorKind))...,
		))
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordRetry(ctx context.Context, meta RequestMeta, reason string) {
	attrs := append(requestAttrs(meta), attribute.String("clickup.retry.reason", reason))
	m.retryCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metricsImpl) RecordCircuitTransition(ctx context.Context, target, from, to string) {
	m.circuitCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("server.address", target),
		attribute.String("clickup.circuit.from", from),
		attribute.String("clickup.circuit.to", to),
	))
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(context.Context, RequestMeta, Outcome, time.Duration, error) {}
func (noopMetrics) RecordRetry(context.Context, RequestMeta, string)                         {}
func (noopMetrics) RecordCircuitTransition(context.Context, string, string, string)          {}
