package clickup

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/clickup-go/cache"
	"github.com/jonwraymond/clickup-go/internal/clock"
	"github.com/jonwraymond/clickup-go/observe"
	"github.com/jonwraymond/clickup-go/resilience"
)

// Default configuration values.
const (
	DefaultBaseURL                 = "https://api.clickup.com/api/v2/"
	DefaultRetryCount              = 3
	DefaultRetryBaseDelay          = 2 * time.Second
	DefaultRateLimitFallbackDelay  = 5 * time.Second
	DefaultBreakerFailureThreshold = 5
	DefaultBreakerDuration         = 30 * time.Second
	DefaultRequestTimeout          = 100 * time.Second
	DefaultUserAgent               = "clickup-go/1.0"
)

// maxRetryDelay caps a single backoff wait. A Retry-After longer than this
// is not honoured; the 429 goes back to the backoff layer instead.
const maxRetryDelay = 2 * time.Minute

// Options is the connection configuration. Start from DefaultOptions.
type Options struct {
	// BaseURL is the API root; relative paths resolve against it.
	BaseURL string

	// PersonalToken is sent verbatim. OAuthToken is sent as a Bearer
	// token and wins when both are set.
	PersonalToken string
	OAuthToken    string

	// RetryCount is the number of retries after the first attempt for
	// transient and rate-limit failures. 0 disables backoff retry.
	RetryCount int

	// RetryBaseDelay is the wait before the first retry; each further
	// retry doubles it.
	RetryBaseDelay time.Duration

	// RateLimitFallbackDelay is used when a 429 carries a Retry-After
	// header that cannot be parsed.
	RateLimitFallbackDelay time.Duration

	// BreakerFailureThreshold consecutive failed calls open the circuit
	// for BreakerDuration.
	BreakerFailureThreshold int
	BreakerDuration         time.Duration

	// RequestTimeout bounds each attempt. 0 disables it.
	RequestTimeout time.Duration

	UserAgent string

	// RequestsPerMinute throttles sends on the client side. 0 disables it.
	RequestsPerMinute int

	// MaxConcurrentRequests caps in-flight calls. 0 means unbounded.
	MaxConcurrentRequests int
}

// DefaultOptions returns the default configuration without credentials.
func DefaultOptions() Options {
	return Options{
		BaseURL:                 DefaultBaseURL,
		RetryCount:              DefaultRetryCount,
		RetryBaseDelay:          DefaultRetryBaseDelay,
		RateLimitFallbackDelay:  DefaultRateLimitFallbackDelay,
		BreakerFailureThreshold: DefaultBreakerFailureThreshold,
		BreakerDuration:         DefaultBreakerDuration,
		RequestTimeout:          DefaultRequestTimeout,
		UserAgent:               DefaultUserAgent,
	}
}

// withDefaults fills fields whose zero value is never meaningful.
func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.RetryBaseDelay == 0 {
		o.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if o.RateLimitFallbackDelay == 0 {
		o.RateLimitFallbackDelay = DefaultRateLimitFallbackDelay
	}
	if o.BreakerFailureThreshold == 0 {
		o.BreakerFailureThreshold = DefaultBreakerFailureThreshold
	}
	if o.BreakerDuration == 0 {
		o.BreakerDuration = DefaultBreakerDuration
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}

// parseBaseURL validates BaseURL and guarantees a trailing slash so that
// relative paths resolve below it.
func (o Options) parseBaseURL() (*url.URL, error) {
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return nil, configError("%w: base url: %v", ErrInvalidOptions, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, configError("%w: base url %q must be an absolute http(s) URL", ErrInvalidOptions, o.BaseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func (o Options) validate() error {
	switch {
	case o.RetryCount < 0:
		return configError("%w: retry count %d is negative", ErrInvalidOptions, o.RetryCount)
	case o.RetryBaseDelay < 0, o.RateLimitFallbackDelay < 0, o.BreakerDuration < 0, o.RequestTimeout < 0:
		return configError("%w: durations must not be negative", ErrInvalidOptions)
	case o.BreakerFailureThreshold < 0:
		return configError("%w: breaker failure threshold %d is negative", ErrInvalidOptions, o.BreakerFailureThreshold)
	case o.RequestsPerMinute < 0, o.MaxConcurrentRequests < 0:
		return configError("%w: limits must not be negative", ErrInvalidOptions)
	}
	return nil
}

// BreakerConfig returns the circuit breaker configuration a connection
// built from o uses. Pass it to resilience.NewBreakerRegistry to share
// breakers between connections.
func BreakerConfig(o Options) resilience.CircuitBreakerConfig {
	o = o.withDefaults()
	return resilience.CircuitBreakerConfig{
		MaxFailures:  o.BreakerFailureThreshold,
		ResetTimeout: o.BreakerDuration,
		IsFailure:    isBreakerFailure,
	}
}

// Option configures the collaborators of a Connection.
type Option func(*collaborators)

type collaborators struct {
	httpClient *http.Client
	logger     observe.Logger
	middleware *observe.Middleware
	observer   observe.Observer
	registry   *resilience.BreakerRegistry
	cache      *cache.Middleware
	clock      clock.Clock
}

// WithHTTPClient sets the HTTP client. Per-attempt deadlines come from
// Options.RequestTimeout, so the client needs no Timeout of its own.
func WithHTTPClient(c *http.Client) Option {
	return func(o *collaborators) { o.httpClient = c }
}

// WithLogger sets the logger for pipeline events.
func WithLogger(l observe.Logger) Option {
	return func(o *collaborators) { o.logger = l }
}

// WithMiddleware instruments every call with m.
func WithMiddleware(m *observe.Middleware) Option {
	return func(o *collaborators) { o.middleware = m }
}

// WithObserver instruments every call with the observer's tracer, meter
// and logger.
func WithObserver(obs observe.Observer) Option {
	return func(o *collaborators) { o.observer = obs }
}

// WithBreakerRegistry shares circuit breakers with other connections. The
// registry should be built with BreakerConfig.
func WithBreakerRegistry(r *resilience.BreakerRegistry) Option {
	return func(o *collaborators) { o.registry = r }
}

// WithCache serves repeated GETs from m.
func WithCache(m *cache.Middleware) Option {
	return func(o *collaborators) { o.cache = m }
}

// WithClock drives retry waits and breaker timing from c.
func WithClock(c clock.Clock) Option {
	return func(o *collaborators) { o.clock = c }
}
