package resilience

import (
	"context"
	"time"
)

// Executor composes resilience patterns around a single logical call.
type Executor struct {
	bulkhead       *Bulkhead
	circuitBreaker *CircuitBreaker
	retry          *Retry
	retryAfter     *RetryAfter
	rateLimiter    *RateLimiter
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds backoff retry to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRetryAfter adds the server-directed single retry to the executor.
func WithRetryAfter(r *RetryAfter) ExecutorOption {
	return func(e *Executor) {
		e.retryAfter = r
	}
}

// WithRateLimiter adds client-side throttling to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds every attempt by timeout.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Execute runs the operation through all configured resilience patterns.
//
// The execution order, outermost first, is:
//  1. Bulkhead - caps concurrent logical calls
//  2. Circuit Breaker - one outcome per logical call
//  3. Retry - exponential backoff across transient failures
//  4. RetryAfter - one server-directed retry
//  5. Rate Limiter - one token per attempt actually sent
//  6. Timeout - bounds each attempt
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	// Build the execution chain from inside out
	execute := op

	if e.timeout != nil {
		execute = wrap(execute, e.timeout.Execute)
	}
	if e.rateLimiter != nil {
		execute = wrap(execute, e.rateLimiter.Execute)
	}
	if e.retryAfter != nil {
		execute = wrap(execute, e.retryAfter.Execute)
	}
	if e.retry != nil {
		execute = wrap(execute, e.retry.Execute)
	}
	if e.circuitBreaker != nil {
		execute = wrap(execute, e.circuitBreaker.Execute)
	}
	if e.bulkhead != nil {
		execute = wrap(execute, e.bulkhead.Execute)
	}

	return execute(ctx)
}

type layer func(ctx context.Context, op func(context.Context) error) error

func wrap(inner func(context.Context) error, outer layer) func(context.Context) error {
	return func(ctx context.Context) error {
		return outer(ctx, inner)
	}
}
