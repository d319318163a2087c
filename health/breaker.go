package health

import (
	"context"
	"time"

	"github.com/jonwraymond/clickup-go/clickup"
	"github.com/jonwraymond/clickup-go/resilience"
)

// BreakerChecker maps a circuit breaker's state to a Status: closed is
// healthy, half-open degraded and open unhealthy. It never sends a request.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for breaker.
func NewBreakerChecker(name string, breaker *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

// Name implements Checker.
func (c *BreakerChecker) Name() string { return c.name }

// Check implements Checker.
func (c *BreakerChecker) Check(_ context.Context) Result {
	if c.breaker == nil {
		return Healthy("no circuit breaker configured")
	}

	m := c.breaker.Metrics()
	var r Result
	switch m.State {
	case resilience.StateOpen:
		r = Unhealthy("circuit open", ErrCircuitOpen)
		r.Kind = clickup.KindCircuitOpen
		r = r.WithDetail("open_until", m.OpenUntil.UTC().Format(time.RFC3339))
	case resilience.StateHalfOpen:
		r = Degraded("circuit half-open, trial request pending")
	default:
		r = Healthy("circuit closed")
	}
	return r.WithDetail("state", m.State.String()).
		WithDetail("failures", m.Failures).
		WithDetail("rejected", m.Rejected)
}

var _ Checker = (*BreakerChecker)(nil)
