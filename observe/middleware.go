package observe

import (
	"context"
	"time"
)

// RequestFunc performs one logical API call.
type RequestFunc func(ctx context.Context, meta RequestMeta) (Outcome, error)

// Middleware wraps API calls with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a RequestFunc safe for concurrent use.
//   - Context: the span is propagated to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Wrap wraps fn with a span, request metrics and an outcome log entry.
func (m *Middleware) Wrap(fn RequestFunc) RequestFunc {
	return func(ctx context.Context, meta RequestMeta) (Outcome, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		outcome, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordRequest(ctx, meta, outcome, duration, err)

		fields := []Field{
			F("method", meta.Method),
			F("path", meta.Path),
			F("status", outcome.StatusCode),
			F("attempts", outcome.Attempts),
			F("duration_ms", duration.Milliseconds()),
		}
		if meta.Operation != "" {
			fields = append(fields, F("operation", meta.Operation))
		}
		if meta.RequestID != "" {
			fields = append(fields, F("request_id", meta.RequestID))
		}

		if err != nil {
			fields = append(fields, F("error_kind", outcome.ErrorKind), F("error", err))
			m.logger.Error(ctx, "request failed", fields...)
		} else {
			m.logger.Debug(ctx, "request completed", fields...)
		}

		return outcome, err
	}
}
