package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/clickup-go/cache"
	"github.com/jonwraymond/clickup-go/clickup"
	"github.com/jonwraymond/clickup-go/observe"
	"github.com/jonwraymond/clickup-go/secret"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLICKUP"

// DefaultServiceName names the service in telemetry.
const DefaultServiceName = "clickup-go"

// Config is the loaded configuration.
type Config struct {
	Client  clickup.Options
	Observe observe.Config
	Cache   CacheConfig
}

// CacheConfig configures the optional GET response cache.
type CacheConfig struct {
	Enabled       bool
	Backend       string // memory|redis
	MaxEntries    int
	DefaultTTL    time.Duration
	MaxTTL        time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// Load reads path (yaml, json or toml, by extension) and applies
// environment overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	return load(context.Background(), viper.New(), path, secret.NewResolver(true))
}

// LoadFromEnv reads the configuration from the environment only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func load(ctx context.Context, v *viper.Viper, path string, resolver *secret.Resolver) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrReadConfig, path, err)
		}
	}

	cfg := fromViper(v)
	if err := resolver.ResolveAll(ctx,
		&cfg.Client.PersonalToken,
		&cfg.Client.OAuthToken,
		&cfg.Cache.RedisPassword,
	); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := clickup.DefaultOptions()

	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("personal_token", "")
	v.SetDefault("oauth_token", "")
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("request_timeout", d.RequestTimeout)

	v.SetDefault("retry.count", d.RetryCount)
	v.SetDefault("retry.base_delay", d.RetryBaseDelay)
	v.SetDefault("retry.rate_limit_fallback_delay", d.RateLimitFallbackDelay)

	v.SetDefault("breaker.failure_threshold", d.BreakerFailureThreshold)
	v.SetDefault("breaker.duration", d.BreakerDuration)

	v.SetDefault("limits.requests_per_minute", d.RequestsPerMinute)
	v.SetDefault("limits.max_concurrent_requests", d.MaxConcurrentRequests)

	v.SetDefault("service_name", DefaultServiceName)
	v.SetDefault("version", "")
	v.SetDefault("log.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.sample_pct", 1.0)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.exporter", "none")

	p := cache.DefaultPolicy()
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_entries", cache.DefaultMaxEntries)
	v.SetDefault("cache.default_ttl", p.DefaultTTL)
	v.SetDefault("cache.max_ttl", p.MaxTTL)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", "clickup")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Client: clickup.Options{
			BaseURL:                 v.GetString("base_url"),
			PersonalToken:           strings.TrimSpace(v.GetString("personal_token")),
			OAuthToken:              strings.TrimSpace(v.GetString("oauth_token")),
			UserAgent:               v.GetString("user_agent"),
			RequestTimeout:          v.GetDuration("request_timeout"),
			RetryCount:              v.GetInt("retry.count"),
			RetryBaseDelay:          v.GetDuration("retry.base_delay"),
			RateLimitFallbackDelay:  v.GetDuration("retry.rate_limit_fallback_delay"),
			BreakerFailureThreshold: v.GetInt("breaker.failure_threshold"),
			BreakerDuration:         v.GetDuration("breaker.duration"),
			RequestsPerMinute:       v.GetInt("limits.requests_per_minute"),
			MaxConcurrentRequests:   v.GetInt("limits.max_concurrent_requests"),
		},
		Observe: observe.Config{
			ServiceName: v.GetString("service_name"),
			Version:     v.GetString("version"),
			Tracing: observe.TracingConfig{
				Enabled:   v.GetBool("tracing.enabled"),
				Exporter:  v.GetString("tracing.exporter"),
				SamplePct: v.GetFloat64("tracing.sample_pct"),
			},
			Metrics: observe.MetricsConfig{
				Enabled:  v.GetBool("metrics.enabled"),
				Exporter: v.GetString("metrics.exporter"),
			},
			Logging: observe.LoggingConfig{
				Enabled:    v.GetBool("log.enabled"),
				Level:      v.GetString("log.level"),
				File:       v.GetString("log.file"),
				MaxSizeMB:  v.GetInt("log.max_size_mb"),
				MaxBackups: v.GetInt("log.max_backups"),
				MaxAgeDays: v.GetInt("log.max_age_days"),
				Compress:   v.GetBool("log.compress"),
			},
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("cache.enabled"),
			Backend:       strings.ToLower(v.GetString("cache.backend")),
			MaxEntries:    v.GetInt("cache.max_entries"),
			DefaultTTL:    v.GetDuration("cache.default_ttl"),
			MaxTTL:        v.GetDuration("cache.max_ttl"),
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: v.GetString("cache.redis_password"),
			RedisDB:       v.GetInt("cache.redis_db"),
			KeyPrefix:     v.GetString("cache.key_prefix"),
		},
	}
}
