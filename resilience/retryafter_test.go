package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/clickup-go/internal/clock"
)

type throttledError struct{ after time.Duration }

func (e *throttledError) Error() string { return "throttled" }

func hintFromThrottled(err error) (time.Duration, bool) {
	var te *throttledError
	if errors.As(err, &te) {
		return te.after, true
	}
	return 0, false
}

func TestRetryAfter_RetriesOnceAfterHint(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	var waited time.Duration
	r := NewRetryAfter(RetryAfterConfig{
		Hint:    hintFromThrottled,
		Clock:   fc,
		OnRetry: func(_ error, d time.Duration) { waited = d },
	})

	var attempts atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- r.Execute(context.Background(), func(context.Context) error {
			if attempts.Add(1) == 1 {
				return &throttledError{after: 3 * time.Second}
			}
			return nil
		})
	}()

	fc.WaitForTimers(1)
	if d, _ := fc.NextDelay(); d != 3*time.Second {
		t.Errorf("wait = %v, want 3s", d)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts before delay = %d, want 1", got)
	}
	fc.Advance(3 * time.Second)

	if err := <-done; err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	if waited != 3*time.Second {
		t.Errorf("OnRetry delay = %v, want 3s", waited)
	}
}

func TestRetryAfter_SecondThrottleSurfaces(t *testing.T) {
	r := NewRetryAfter(RetryAfterConfig{Hint: hintFromThrottled})

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		return &throttledError{after: time.Millisecond}
	})

	var te *throttledError
	if !errors.As(err, &te) {
		t.Errorf("Execute() error = %v, want throttledError", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want exactly 2", attempts)
	}
}

func TestRetryAfter_NoHintNoRetry(t *testing.T) {
	r := NewRetryAfter(RetryAfterConfig{Hint: hintFromThrottled})

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		return errUpstream
	})

	if !errors.Is(err, errUpstream) {
		t.Errorf("Execute() error = %v, want %v", err, errUpstream)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryAfter_MaxDelayRefusesLongWaits(t *testing.T) {
	r := NewRetryAfter(RetryAfterConfig{Hint: hintFromThrottled, MaxDelay: time.Second})

	attempts := 0
	_ = r.Execute(context.Background(), func(context.Context) error {
		attempts++
		return &throttledError{after: time.Hour}
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryAfter_CancelDuringWait(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	r := NewRetryAfter(RetryAfterConfig{Hint: hintFromThrottled, Clock: fc})

	ctx, cancel := context.WithCancel(context.Background())
	var attempts atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- r.Execute(ctx, func(context.Context) error {
			attempts.Add(1)
			return &throttledError{after: 10 * time.Second}
		})
	}()

	fc.WaitForTimers(1)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}
