package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/clickup-go/internal/clock"
)

// RetryAfterConfig configures the server-directed retry.
type RetryAfterConfig struct {
	// Hint reports whether err carries a server-supplied retry delay, and
	// what it is. Errors without a hint are returned unchanged.
	// Default: no error carries a hint.
	Hint func(err error) (time.Duration, bool)

	// MaxDelay refuses to wait longer than this; the error is returned
	// instead. Zero means no limit.
	MaxDelay time.Duration

	// OnRetry is called before waiting.
	OnRetry func(err error, delay time.Duration)

	// Clock drives the wait.
	// Default: the real clock.
	Clock clock.Clock
}

// RetryAfter retries an operation exactly once when the failure carries a
// server-directed delay, such as an HTTP 429 with a Retry-After header.
// The second outcome is returned as-is, whatever it is.
type RetryAfter struct {
	config RetryAfterConfig
	clock  clock.Clock
}

// NewRetryAfter creates a new server-directed retry handler.
func NewRetryAfter(config RetryAfterConfig) *RetryAfter {
	if config.Hint == nil {
		config.Hint = func(error) (time.Duration, bool) { return 0, false }
	}
	return &RetryAfter{config: config, clock: clock.OrReal(config.Clock)}
}

// Execute runs op and, when its failure carries a hint, waits the hinted
// delay and runs op one more time.
func (r *RetryAfter) Execute(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}

	delay, ok := r.config.Hint(err)
	if !ok {
		return err
	}
	if delay < 0 {
		delay = 0
	}
	if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
		return err
	}

	if r.config.OnRetry != nil {
		r.config.OnRetry(err, delay)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(delay):
	}

	return op(ctx)
}
