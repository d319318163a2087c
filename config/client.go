package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/clickup-go/cache"
	"github.com/jonwraymond/clickup-go/clickup"
	"github.com/jonwraymond/clickup-go/health"
	"github.com/jonwraymond/clickup-go/observe"
)

// Client is a clickup.Client together with the collaborators built for it
// from a Config. Close releases all of them.
type Client struct {
	*clickup.Client
	Observer observe.Observer
	Cache    *cache.Middleware

	closers   []func(context.Context) error
	cachePing health.PingFunc
}

// NewClient builds the observer, the optional cache and the client.
// Extra options are applied after the configured ones, so they win.
func (c *Config) NewClient(ctx context.Context, options ...clickup.Option) (*Client, error) {
	obs, err := observe.NewObserver(ctx, c.Observe)
	if err != nil {
		return nil, fmt.Errorf("config: observer: %w", err)
	}
	out := &Client{Observer: obs}
	out.closers = append(out.closers, obs.Shutdown)

	opts := []clickup.Option{clickup.WithObserver(obs)}
	if c.Cache.Enabled {
		mw, store, closeCache, err := c.Cache.build(ctx)
		if err != nil {
			_ = out.Close(ctx)
			return nil, err
		}
		out.Cache = mw
		if rc, ok := store.(*cache.RedisCache); ok {
			out.cachePing = rc.Ping
		}
		if closeCache != nil {
			out.closers = append(out.closers, closeCache)
		}
		opts = append(opts, clickup.WithCache(mw))
	}

	client, err := clickup.NewClient(c.Client, append(opts, options...)...)
	if err != nil {
		_ = out.Close(ctx)
		return nil, err
	}
	out.Client = client
	return out, nil
}

// Health returns an aggregator covering the circuit breaker, an API ping
// and, for the redis backend, a cache ping.
func (c *Client) Health(ping health.PingConfig, config ...health.AggregatorConfig) *health.Aggregator {
	agg := health.NewAggregator(config...)
	agg.Register("circuit", health.NewBreakerChecker("circuit", c.Connection().Breaker()))
	agg.Register("api", health.NewAPIChecker(c.Client, ping))
	if c.cachePing != nil {
		agg.Register("cache", health.NewPingChecker("cache", c.cachePing, ping))
	}
	return agg
}

// Close releases the connection, the cache backend and the observer, in
// that order, and joins their errors.
func (c *Client) Close(ctx context.Context) error {
	if c.Client != nil {
		c.Connection().Close()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c CacheConfig) build(ctx context.Context) (*cache.Middleware, cache.Cache, func(context.Context) error, error) {
	var (
		store   cache.Cache
		closeFn func(context.Context) error
	)

	switch c.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		rc, err := cache.NewRedisCache(rdb, "")
		if err != nil {
			_ = rdb.Close()
			return nil, nil, nil, err
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("config: redis %s: %w", c.RedisAddr, err)
		}
		store = rc
		closeFn = func(context.Context) error { return rdb.Close() }
	default:
		mc, err := cache.NewMemoryCache(c.MaxEntries)
		if err != nil {
			return nil, nil, nil, err
		}
		store = mc
	}

	policy := cache.Policy{DefaultTTL: c.DefaultTTL, MaxTTL: c.MaxTTL}
	mw, err := cache.NewMiddleware(store, cache.NewRequestKeyer(c.KeyPrefix), policy, nil)
	if err != nil {
		if closeFn != nil {
			_ = closeFn(ctx)
		}
		return nil, nil, nil, err
	}
	return mw, store, closeFn, nil
}
