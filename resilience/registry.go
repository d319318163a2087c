package resilience

import (
	"sort"
	"sync"
)

// BreakerRegistry hands out one CircuitBreaker per logical upstream target,
// typically the API host. Callers that talk to the same target through
// different connections share a registry to share breaker state.
type BreakerRegistry struct {
	config        CircuitBreakerConfig
	onStateChange func(target string, from, to State)

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerRegistry creates a registry whose breakers use config.
// config.OnStateChange is ignored; use OnStateChange on the registry so the
// callback learns which target changed.
func NewBreakerRegistry(config CircuitBreakerConfig) *BreakerRegistry {
	config.OnStateChange = nil
	return &BreakerRegistry{
		config:   config,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// OnStateChange installs a callback for transitions of every breaker created
// after the call.
func (r *BreakerRegistry) OnStateChange(fn func(target string, from, to State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStateChange = fn
}

// Get returns the breaker for target, creating it on first use.
func (r *BreakerRegistry) Get(target string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[target]; ok {
		return cb
	}

	cfg := r.config
	if fn := r.onStateChange; fn != nil {
		cfg.OnStateChange = func(from, to State) { fn(target, from, to) }
	}
	cb := NewCircuitBreaker(cfg)
	r.breakers[target] = cb
	return cb
}

// Targets returns the known targets in sorted order.
func (r *BreakerRegistry) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	targets := make([]string, 0, len(r.breakers))
	for t := range r.breakers {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// ResetAll closes every breaker in the registry.
func (r *BreakerRegistry) ResetAll() {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mu.Unlock()

	for _, cb := range breakers {
		cb.Reset()
	}
}
