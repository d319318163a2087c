// Package observe instruments API calls with logs, traces and metrics.
//
// Every logical request made through the client runs inside
// Middleware.Wrap, which opens a span named after the operation, records
// request counters and latency, and logs the outcome. The pipeline reports
// retries and circuit breaker transitions through the same Metrics and
// Logger.
//
// Logging is backed by go.uber.org/zap with optional file rotation via
// lumberjack. Tracing and metrics use OpenTelemetry; exporters are chosen
// by name in the exporters subpackage. When a subsystem is disabled its
// no-op counterpart is used, so instrumented code never checks for nil.
package observe
