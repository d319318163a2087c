// Package clock abstracts the passage of time so that retry delays,
// Retry-After waits and circuit breaker cool-downs can be driven
// deterministically in tests.
package clock

import "time"

// Clock is the subset of the time package the request pipeline needs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - After must deliver exactly one value on the returned channel once d has elapsed.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// OrReal returns c, or the real clock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real()
	}
	return c
}

var _ Clock = realClock{}
