package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RequestMeta identifies one logical API call for telemetry.
type RequestMeta struct {
	Operation string // Logical operation, e.g. "tasks.get" (optional)
	Method    string // HTTP method
	Path      string // Path relative to the base URL
	Target    string // Upstream host
	RequestID string // Correlation id sent as X-Request-Id
}

// SpanName returns the span name: clickup.<operation> or clickup.<METHOD>.
func (m RequestMeta) SpanName() string {
	if m.Operation != "" {
		return "clickup." + m.Operation
	}
	return "clickup." + m.Method
}

// Outcome summarizes how a logical call ended.
type Outcome struct {
	StatusCode int    // Final HTTP status, 0 if none was received
	ErrorKind  string // Error kind name, empty on success
	ErrorCode  string // Upstream ECODE, if any
	Attempts   int    // Requests actually sent
	Cached     bool   // Served from the response cache
	Shared     bool   // Joined a concurrent identical request instead of sending
}

// Tracer wraps OpenTelemetry tracing with request span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta RequestMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, outcome Outcome, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta RequestMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", meta.Method),
		attribute.String("url.path", meta.Path),
	}
	if meta.Target != "" {
		attrs = append(attrs, attribute.String("server.address", meta.Target))
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("clickup.operation", meta.Operation))
	}
	if meta.RequestID != "" {
		attrs = append(attrs, attribute.String("clickup.request_id", meta.RequestID))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome, err error) {
	attrs := []attribute.KeyValue{
		attribute.Int("clickup.attempts", outcome.Attempts),
		attribute.Bool("clickup.cached", outcome.Cached),
	}
	if outcome.Shared {
		attrs = append(attrs, attribute.Bool("clickup.shared", true))
	}
	if outcome.StatusCode != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", outcome.StatusCode))
	}
	if outcome.ErrorCode != "" {
		attrs = append(attrs, attribute.String("clickup.ecode", outcome.ErrorCode))
	}
	if outcome.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error.type", outcome.ErrorKind))
	}
	span.SetAttributes(attrs...)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta RequestMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ Outcome, _ error) {
	span.End()
}
