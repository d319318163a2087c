package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/clickup-go/internal/clock"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means requests pass through.
	StateClosed State = iota
	// StateOpen means requests fail immediately without reaching the upstream.
	StateOpen
	// StateHalfOpen means a single trial request is allowed through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a trial request
	// is admitted.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of trial permits in half-open state.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called after the circuit state changes. It runs
	// outside the breaker lock.
	OnStateChange func(from, to State)

	// IsFailure determines if an error counts as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// IsIgnored reports outcomes that count neither as failure nor as
	// success. An ignored trial request gives its permit back.
	// Default: context cancellation and deadline errors.
	IsIgnored func(err error) bool

	// Clock supplies the current time.
	// Default: the real clock.
	Clock clock.Clock
}

type transition struct {
	from, to State
}

// CircuitBreaker implements the circuit breaker pattern.
//
// Contract:
// - Concurrency: safe for concurrent use; all state lives behind one mutex.
// - Half-open admits at most HalfOpenMaxRequests concurrent trial calls.
// - Outcomes of calls admitted under an earlier state are discarded.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	clock  clock.Clock

	mu            sync.Mutex
	state         State
	generation    uint64
	failures      int
	rejected      int64
	lastFailure   time.Time
	openedAt      time.Time
	halfOpenCount int
	pending       []transition
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.IsIgnored == nil {
		config.IsIgnored = isContextError
	}

	return &CircuitBreaker{
		config: config,
		clock:  clock.OrReal(config.Clock),
		state:  StateClosed,
	}
}

// Execute runs the operation through the circuit breaker. While the circuit
// is open the operation is not invoked and ErrCircuitOpen is returned.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = op(ctx)
	cb.afterRequest(generation, err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	state := cb.currentStateLocked()
	pending := cb.drainLocked()
	cb.mu.Unlock()

	cb.notify(pending)
	return state
}

// Reset forces the circuit back to closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	if cb.state != StateClosed {
		cb.setStateLocked(StateClosed)
	}
	cb.failures = 0
	pending := cb.drainLocked()
	cb.mu.Unlock()

	cb.notify(pending)
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mu.Lock()
	defer func() {
		pending := cb.drainLocked()
		cb.mu.Unlock()
		cb.notify(pending)
	}()

	switch cb.currentStateLocked() {
	case StateOpen:
		cb.rejected++
		return 0, ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.config.HalfOpenMaxRequests {
			cb.rejected++
			return 0, ErrCircuitOpen
		}
		cb.halfOpenCount++
	}

	return cb.generation, nil
}

func (cb *CircuitBreaker) afterRequest(generation uint64, err error) {
	cb.mu.Lock()
	defer func() {
		pending := cb.drainLocked()
		cb.mu.Unlock()
		cb.notify(pending)
	}()

	state := cb.currentStateLocked()
	if generation != cb.generation {
		return
	}

	if err != nil && cb.config.IsIgnored(err) {
		if state == StateHalfOpen && cb.halfOpenCount > 0 {
			cb.halfOpenCount--
		}
		return
	}

	isFailure := cb.config.IsFailure(err)
	now := cb.clock.Now()

	switch state {
	case StateClosed:
		if !isFailure {
			cb.failures = 0
			return
		}
		cb.failures++
		cb.lastFailure = now
		if cb.failures >= cb.config.MaxFailures {
			cb.setStateLocked(StateOpen)
		}

	case StateHalfOpen:
		if isFailure {
			cb.lastFailure = now
			cb.setStateLocked(StateOpen)
			return
		}
		cb.setStateLocked(StateClosed)
	}
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && cb.clock.Now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.setStateLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setStateLocked(state State) {
	from := cb.state
	cb.state = state
	cb.generation++
	cb.halfOpenCount = 0

	switch state {
	case StateClosed:
		cb.failures = 0
	case StateOpen:
		cb.openedAt = cb.clock.Now()
	}

	if cb.config.OnStateChange != nil && from != state {
		cb.pending = append(cb.pending, transition{from: from, to: state})
	}
}

func (cb *CircuitBreaker) drainLocked() []transition {
	pending := cb.pending
	cb.pending = nil
	return pending
}

func (cb *CircuitBreaker) notify(pending []transition) {
	for _, t := range pending {
		cb.config.OnStateChange(t.from, t.to)
	}
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	state := cb.currentStateLocked()
	m := CircuitBreakerMetrics{
		State:       state,
		Failures:    cb.failures,
		Rejected:    cb.rejected,
		LastFailure: cb.lastFailure,
	}
	if state == StateOpen {
		m.OpenUntil = cb.openedAt.Add(cb.config.ResetTimeout)
	}
	pending := cb.drainLocked()
	cb.mu.Unlock()

	cb.notify(pending)
	return m
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State State
	// Failures is the consecutive failure count in the closed state.
	Failures    int
	Rejected    int64
	LastFailure time.Time
	// OpenUntil is when the next trial request is admitted; zero unless open.
	OpenUntil time.Time
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
