package cache

import (
	"strings"
	"time"
)

// Policy configures how long responses are kept.
type Policy struct {
	// DefaultTTL applies to paths without an override.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL caps every TTL. If zero, no maximum is enforced.
	MaxTTL time.Duration

	// PathTTL overrides the TTL for request paths with the given prefix.
	// The longest matching prefix wins; a zero TTL disables caching for
	// that prefix.
	PathTTL map[string]time.Duration
}

// DefaultPolicy returns the default policy: 30 seconds, capped at 10 minutes.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 30 * time.Second,
		MaxTTL:     10 * time.Minute,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache reports whether the policy caches anything at all.
func (p Policy) ShouldCache() bool {
	if p.DefaultTTL > 0 {
		return true
	}
	for _, ttl := range p.PathTTL {
		if ttl > 0 {
			return true
		}
	}
	return false
}

// EffectiveTTL returns override, or DefaultTTL when override <= 0, clamped
// to MaxTTL.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

// TTLFor returns the TTL for a request path relative to the API base.
func (p Policy) TTLFor(path string) time.Duration {
	path = strings.TrimPrefix(path, "/")

	best := -1
	var ttl time.Duration
	for prefix, d := range p.PathTTL {
		prefix = strings.TrimPrefix(prefix, "/")
		if strings.HasPrefix(path, prefix) && len(prefix) > best {
			best = len(prefix)
			ttl = d
		}
	}
	if best < 0 {
		return p.EffectiveTTL(0)
	}
	if ttl <= 0 {
		return 0
	}
	return p.EffectiveTTL(ttl)
}
