// Package resilience provides the policies that wrap every outbound API call.
//
// # Patterns
//
//   - Circuit Breaker: stops sending requests to an upstream after
//     repeated failures and admits a single trial request once the break
//     duration has elapsed. BreakerRegistry keeps one breaker per target.
//
//   - Retry: re-attempts transient failures with exponential, linear or
//     constant backoff. The exponential schedule comes from
//     github.com/cenkalti/backoff/v4.
//
//   - RetryAfter: retries exactly once after a server-directed delay, as
//     signalled by an HTTP 429 with a Retry-After header.
//
//   - Rate Limiter: client-side token bucket (golang.org/x/time/rate).
//
//   - Bulkhead: limits concurrent operations.
//
//   - Timeout: bounds each attempt.
//
// # Usage
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: 30 * time.Second,
//	})
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  4,
//	    InitialDelay: 2 * time.Second,
//	    Multiplier:   2.0,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithRetryAfter(resilience.NewRetryAfter(resilience.RetryAfterConfig{
//	        Hint: retryAfterHint,
//	    })),
//	    resilience.WithTimeout(30*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return send(ctx)
//	})
//
// All delays are taken from an injectable clock so tests can advance time
// instead of sleeping.
package resilience
