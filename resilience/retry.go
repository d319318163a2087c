package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonwraymond/clickup-go/internal/clock"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 2s
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the growth factor for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter randomizes each delay by up to 25% in either direction.
	// Default: false
	Jitter bool

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before waiting for each retry. attempt is the
	// 1-based number of the attempt that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Clock drives the delays.
	// Default: the real clock.
	Clock clock.Clock
}

// Retry implements retry with backoff.
type Retry struct {
	config RetryConfig
	clock  clock.Clock
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 2 * time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config, clock: clock.OrReal(config.Clock)}
}

// Execute runs the operation, retrying failures accepted by RetryIf until
// MaxAttempts is reached. Attempts are strictly sequential. Cancellation
// of ctx is never retried: if ctx is done after an attempt, or while
// waiting, Execute returns immediately.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	schedule := r.newBackOff()

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil || !r.config.RetryIf(err) {
			return err
		}

		if attempt >= r.config.MaxAttempts {
			return err
		}

		delay := schedule.NextBackOff()
		if delay == backoff.Stop {
			return err
		}
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(delay):
		}
	}
}

func (r *Retry) newBackOff() backoff.BackOff {
	switch r.config.Strategy {
	case BackoffConstant:
		return backoff.NewConstantBackOff(r.config.InitialDelay)

	case BackoffLinear:
		return &linearBackOff{step: r.config.InitialDelay}

	default:
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = r.config.InitialDelay
		b.Multiplier = r.config.Multiplier
		b.MaxInterval = r.config.MaxDelay
		b.MaxElapsedTime = 0
		b.RandomizationFactor = 0
		if r.config.Jitter {
			b.RandomizationFactor = 0.25
		}
		b.Reset()
		return b
	}
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// linearBackOff grows the delay by step each time.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.step * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }
