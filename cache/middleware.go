package cache

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// FetchFunc performs the request and returns the successful response body.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Request describes the call being cached.
type Request struct {
	Method     string
	URL        string // Absolute URL including query
	Path       string // Path relative to the API base, used by Policy.TTLFor
	Credential string // Credential fingerprint; never the raw token
}

// SkipRule reports whether a request must bypass the cache.
type SkipRule func(method, path string) bool

// DefaultSkipRule bypasses the cache for everything but GET.
func DefaultSkipRule(method, _ string) bool {
	return method != http.MethodGet
}

// Middleware puts a Cache in front of a FetchFunc.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: fetch errors are returned unchanged and never cached.
//   - Coalescing: concurrent misses for one key share a single fetch and its
//     outcome. A waiter whose own context ends stops waiting. When the shared
//     fetch ended because its leader's context did, a waiter whose context is
//     still live fetches again instead of inheriting that cancellation.
type Middleware struct {
	cache    Cache
	keyer    Keyer
	policy   Policy
	skipRule SkipRule
	group    singleflight.Group
}

// NewMiddleware creates a cache middleware. A nil keyer uses
// NewRequestKeyer(""); a nil skipRule uses DefaultSkipRule.
func NewMiddleware(cache Cache, keyer Keyer, policy Policy, skipRule SkipRule) (*Middleware, error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	if keyer == nil {
		keyer = NewRequestKeyer("")
	}
	if skipRule == nil {
		skipRule = DefaultSkipRule
	}
	return &Middleware{cache: cache, keyer: keyer, policy: policy, skipRule: skipRule}, nil
}

// Fetch returns the cached body for req or calls fetch and caches its
// result. hit reports whether the body came from the cache.
func (m *Middleware) Fetch(ctx context.Context, req Request, fetch FetchFunc) (body []byte, hit bool, err error) {
	ttl := m.policy.TTLFor(req.Path)
	if m.skipRule(req.Method, req.Path) || ttl <= 0 {
		body, err = fetch(ctx)
		return body, false, err
	}

	key, err := m.keyer.Key(req.Method, req.URL, req.Credential)
	if err != nil {
		body, err = fetch(ctx)
		return body, false, err
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, true, nil
	}

	for {
		led := false
		ch := m.group.DoChan(key, func() (any, error) {
			led = true
			body, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			_ = m.cache.Set(ctx, key, body, ttl)
			return body, nil
		})

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				body, _ := res.Val.([]byte)
				return body, false, nil
			}
			if !led && ctx.Err() == nil && isContextError(res.Err) {
				continue
			}
			return nil, false, res.Err
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Invalidate drops the cached GET response for req.URL. Writes call it so
// a following read sees the change.
func (m *Middleware) Invalidate(ctx context.Context, req Request) error {
	key, err := m.keyer.Key(http.MethodGet, req.URL, req.Credential)
	if err != nil {
		return err
	}
	return m.cache.Delete(ctx, key)
}
