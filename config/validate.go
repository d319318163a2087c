package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var cacheBackends = []any{"memory", "redis"}

// Validate checks the loaded values. Every failure is reported, keyed by
// field, and wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	o := &c.Client
	noOAuth := strings.TrimSpace(o.OAuthToken) == ""

	err := validation.ValidateStruct(o,
		validation.Field(&o.BaseURL, validation.Required, validation.By(httpsURL)),
		validation.Field(&o.PersonalToken,
			validation.When(noOAuth, validation.Required.Error("personal_token or oauth_token is required")),
		),
		validation.Field(&o.RetryCount, validation.Min(0)),
		validation.Field(&o.RetryBaseDelay, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&o.RateLimitFallbackDelay, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&o.BreakerFailureThreshold, validation.Required, validation.Min(1)),
		validation.Field(&o.BreakerDuration, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&o.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&o.RequestsPerMinute, validation.Min(0)),
		validation.Field(&o.MaxConcurrentRequests, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("%w: cache: %w", ErrInvalidConfig, err)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the cache settings. Disabled caches are not checked.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(cacheBackends...)),
		validation.Field(&c.RedisAddr, validation.When(c.Backend == "redis", validation.Required)),
		validation.Field(&c.MaxEntries, validation.Min(0)),
		validation.Field(&c.DefaultTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxTTL, validation.Min(c.DefaultTTL)),
	)
}

func httpsURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "https" || u.Host == "" {
		return errors.New("must be an absolute https URL")
	}
	return nil
}
