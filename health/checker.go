package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jonwraymond/clickup-go/clickup"
)

// Status ranks how usable a dependency is. Higher is worse, so an
// aggregate status is the maximum of its parts.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// HTTPStatus is the response code Handler writes for s. A degraded client
// still serves calls, so only unhealthy maps to 503.
func (s Status) HTTPStatus() int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Result is one check's verdict.
type Result struct {
	Status  Status
	Message string

	// Kind is the clickup error kind behind a failed check. It stays
	// KindUnknown for successes and for failures outside the client.
	Kind clickup.Kind
	Err  error

	// Details holds check-specific values such as breaker counters.
	Details map[string]any

	// Latency and CheckedAt are filled by the Aggregator when the check
	// leaves them unset.
	Latency   time.Duration
	CheckedAt time.Time
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message}
}

// Unhealthy creates an unhealthy result and records the clickup kind of err.
func Unhealthy(message string, err error) Result {
	r := Result{Status: StatusUnhealthy, Message: message, Err: err}
	if err != nil {
		r.Kind = clickup.KindOf(err)
	}
	return r
}

// WithDetail returns r with one more detail set.
func (r Result) WithDetail(key string, value any) Result {
	details := make(map[string]any, len(r.Details)+1)
	for k, v := range r.Details {
		details[k] = v
	}
	details[key] = value
	r.Details = details
	return r
}

// Checker is the interface for health checks.
//
// Contract:
// - Concurrency: Check may be called from several goroutines at once.
// - Context: Check must return promptly once ctx is done.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

type funcChecker struct {
	name string
	fn   func(context.Context) Result
}

// CheckFunc adapts fn to a Checker.
func CheckFunc(name string, fn func(context.Context) Result) Checker {
	return funcChecker{name: name, fn: fn}
}

func (f funcChecker) Name() string                     { return f.name }
func (f funcChecker) Check(ctx context.Context) Result { return f.fn(ctx) }
