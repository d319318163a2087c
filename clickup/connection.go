package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/clickup-go/auth"
	"github.com/jonwraymond/clickup-go/cache"
	"github.com/jonwraymond/clickup-go/internal/clock"
	"github.com/jonwraymond/clickup-go/observe"
	"github.com/jonwraymond/clickup-go/resilience"
)

// Request is one logical API call.
type Request struct {
	Method string
	Path   string     // Relative to the base URL
	Query  url.Values // Optional

	// Body is encoded as JSON when non-nil. Multipart takes precedence.
	Body      any
	Multipart *Multipart

	// Operation names the call in traces and logs, e.g. "tasks.get".
	Operation string
}

// Connection sends requests to the API through the resilience pipeline.
//
// Contract:
//   - Concurrency: safe for concurrent use. The circuit breaker is the only
//     state shared between calls.
//   - Context: every call honors cancellation, including during retry waits.
//   - Errors: every failure is an *Error; see Kind.
type Connection struct {
	opts       Options
	baseURL    *url.URL
	auth       auth.Authenticator
	credential string
	httpClient *http.Client
	clock      clock.Clock

	breaker     *resilience.CircuitBreaker
	rateLimiter *resilience.RateLimiter
	bulkhead    *resilience.Bulkhead

	middleware *observe.Middleware
	logger     observe.Logger
	cache      *cache.Middleware
}

// NewConnection validates opts, selects the Authenticator and assembles
// the pipeline. A missing credential is reported here, as KindConfiguration,
// before any request can be sent.
func NewConnection(opts Options, options ...Option) (*Connection, error) {
	var co collaborators
	for _, o := range options {
		o(&co)
	}

	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	base, err := opts.parseBaseURL()
	if err != nil {
		return nil, err
	}

	authenticator, err := auth.New(auth.Credentials{
		OAuthToken:    opts.OAuthToken,
		PersonalToken: opts.PersonalToken,
	})
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Message: err.Error(), Err: err}
	}
	header, err := authenticator.AuthorizationHeader(context.Background())
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Message: err.Error(), Err: err}
	}

	c := &Connection{
		opts:       opts,
		baseURL:    base,
		auth:       authenticator,
		credential: auth.Fingerprint(header),
		httpClient: co.httpClient,
		clock:      clock.OrReal(co.clock),
		cache:      co.cache,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}

	switch {
	case co.middleware != nil:
		c.middleware = co.middleware
	case co.observer != nil:
		mw, err := observe.MiddlewareFromObserver(co.observer)
		if err != nil {
			return nil, configError("observer metrics: %w", err)
		}
		c.middleware = mw
	default:
		c.middleware = observe.NewMiddleware(nil, nil, co.logger)
	}
	c.logger = co.logger
	if c.logger == nil {
		c.logger = c.middleware.Logger()
	}

	registry := co.registry
	if registry == nil {
		cfg := BreakerConfig(opts)
		cfg.Clock = c.clock
		registry = resilience.NewBreakerRegistry(cfg)
		registry.OnStateChange(c.onBreakerStateChange)
	}
	c.breaker = registry.Get(base.Host)

	if opts.RequestsPerMinute > 0 {
		c.rateLimiter = resilience.PerMinute(opts.RequestsPerMinute, opts.RequestTimeout)
	}
	if opts.MaxConcurrentRequests > 0 {
		c.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: opts.MaxConcurrentRequests,
			MaxWait:       opts.RequestTimeout,
		})
	}

	if authenticator.Name() == auth.MethodOAuth {
		c.warnIfExpired(opts.OAuthToken)
	}
	return c, nil
}

func (c *Connection) warnIfExpired(token string) {
	info, err := auth.Inspect(token)
	if err != nil || !info.JWT {
		return
	}
	if info.Expired(c.clock.Now()) {
		c.logger.Warn(context.Background(), "oauth token has expired",
			observe.F("subject", info.Subject),
			observe.F("expired_at", info.ExpiresAt),
		)
	}
}

// BaseURL returns a copy of the resolved base URL.
func (c *Connection) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Breaker returns the circuit breaker guarding this connection's host.
func (c *Connection) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// AuthMethod returns the credential method in use.
func (c *Connection) AuthMethod() string {
	return c.auth.Name()
}

// Close releases idle HTTP connections.
func (c *Connection) Close() {
	c.httpClient.CloseIdleConnections()
}

// Do performs req and decodes a 2xx JSON body into out. An empty body
// leaves out untouched. out may be nil when no body is expected.
func (c *Connection) Do(ctx context.Context, req *Request, out any) error {
	_, err := c.do(ctx, req, out)
	return err
}

// Get performs a GET. found is false when the response body was empty.
// query may be nil, url.Values or an options struct; see EncodeQuery.
func (c *Connection) Get(ctx context.Context, path string, query any, out any) (found bool, err error) {
	q, err := EncodeQuery(query)
	if err != nil {
		return false, &Error{Kind: KindClient, Method: http.MethodGet, Path: path, Message: err.Error(), Err: err}
	}
	return c.do(ctx, &Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

func (c *Connection) do(ctx context.Context, req *Request, out any) (bool, error) {
	if req == nil || req.Method == "" {
		return false, &Error{Kind: KindClient, Message: "request method is required"}
	}

	u, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return false, &Error{Kind: KindClient, Method: req.Method, Path: req.Path, Message: err.Error(), Err: err}
	}
	payload, contentType, err := encodeBody(req)
	if err != nil {
		return false, &Error{Kind: KindClient, Method: req.Method, Path: req.Path, Message: err.Error(), Err: err}
	}

	meta := observe.RequestMeta{
		Operation: req.Operation,
		Method:    req.Method,
		Path:      req.Path,
		Target:    c.baseURL.Host,
		RequestID: uuid.NewString(),
	}

	var body []byte
	call := c.middleware.Wrap(func(ctx context.Context, meta observe.RequestMeta) (observe.Outcome, error) {
		// A coalesced fetch may run on another goroutine and outlive this
		// call, so its outcome is published under a lock.
		var (
			outcome observe.Outcome
			mu      sync.Mutex
			sent    observe.Outcome
			didSend bool
		)
		fetch := func(ctx context.Context) ([]byte, error) {
			var o observe.Outcome
			b, err := c.execute(ctx, meta, u, payload, contentType, &o)
			mu.Lock()
			sent, didSend = o, true
			mu.Unlock()
			return b, err
		}

		var err error
		if c.cache != nil {
			creq := cache.Request{Method: req.Method, URL: u.String(), Path: req.Path, Credential: c.credential}
			body, outcome.Cached, err = c.cache.Fetch(ctx, creq, fetch)
			if err == nil && req.Method != http.MethodGet {
				if ierr := c.cache.Invalidate(ctx, creq); ierr != nil {
					c.logger.Warn(ctx, "cache invalidation failed, a stale read is possible",
						observe.F("method", meta.Method),
						observe.F("path", meta.Path),
						observe.F("error", ierr),
					)
				}
			}
		} else {
			body, err = fetch(ctx)
		}

		mu.Lock()
		if didSend {
			outcome.Attempts, outcome.StatusCode = sent.Attempts, sent.StatusCode
		}
		outcome.Shared = err == nil && !didSend && !outcome.Cached
		mu.Unlock()

		if err != nil {
			apiErr := classifyFailure(ctx, meta.Method, meta.Path, err)
			if apiErr.Method == "" {
				apiErr.Method, apiErr.Path = meta.Method, meta.Path
			}
			outcome.ErrorKind = apiErr.Kind.String()
			outcome.ErrorCode = apiErr.Code
			if apiErr.StatusCode != 0 {
				outcome.StatusCode = apiErr.StatusCode
			}
			return outcome, apiErr
		}
		return outcome, nil
	})

	if _, err := call(ctx, meta); err != nil {
		return false, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, &Error{
			Kind:    KindDecode,
			Method:  req.Method,
			Path:    req.Path,
			Message: fmt.Sprintf("decode response into %T", out),
			Body:    body,
			Err:     err,
		}
	}
	return true, nil
}

// execute runs the resilience pipeline around send. Retry layers are built
// per call so their callbacks can report against this call's context.
func (c *Connection) execute(ctx context.Context, meta observe.RequestMeta, u *url.URL, payload []byte, contentType string, outcome *observe.Outcome) ([]byte, error) {
	var body []byte

	err := c.executor(ctx, meta).Execute(ctx, func(ctx context.Context) error {
		outcome.Attempts++
		b, status, err := c.send(ctx, meta, u, payload, contentType)
		if status != 0 {
			outcome.StatusCode = status
		}
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	return body, err
}

func (c *Connection) executor(ctx context.Context, meta observe.RequestMeta) *resilience.Executor {
	metrics := c.middleware.Metrics()

	opts := []resilience.ExecutorOption{
		resilience.WithCircuitBreaker(c.breaker),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  1 + c.opts.RetryCount,
			InitialDelay: c.opts.RetryBaseDelay,
			MaxDelay:     maxRetryDelay,
			Multiplier:   2,
			RetryIf:      isRetryable,
			Clock:        c.clock,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				metrics.RecordRetry(ctx, meta, "backoff")
				c.logger.Warn(ctx, "retrying request",
					observe.F("method", meta.Method),
					observe.F("path", meta.Path),
					observe.F("attempt", attempt),
					observe.F("delay_ms", delay.Milliseconds()),
					observe.F("error", err),
				)
			},
		})),
		resilience.WithRetryAfter(resilience.NewRetryAfter(resilience.RetryAfterConfig{
			Hint:     retryAfterHint,
			MaxDelay: maxRetryDelay,
			Clock:    c.clock,
			OnRetry: func(err error, delay time.Duration) {
				metrics.RecordRetry(ctx, meta, "retry_after")
				c.logger.Info(ctx, "rate limited, waiting for retry-after",
					observe.F("method", meta.Method),
					observe.F("path", meta.Path),
					observe.F("delay_ms", delay.Milliseconds()),
				)
			},
		})),
	}
	if c.bulkhead != nil {
		opts = append(opts, resilience.WithBulkhead(c.bulkhead))
	}
	if c.rateLimiter != nil {
		opts = append(opts, resilience.WithRateLimiter(c.rateLimiter))
	}
	if c.opts.RequestTimeout > 0 {
		opts = append(opts, resilience.WithTimeout(c.opts.RequestTimeout))
	}
	return resilience.NewExecutor(opts...)
}

// send performs one attempt. Non-2xx responses are returned as *Error;
// transport failures are returned unwrapped so the pipeline can tell
// cancellation from network trouble.
func (c *Connection) send(ctx context.Context, meta observe.RequestMeta, u *url.URL, payload []byte, contentType string) ([]byte, int, error) {
	header, err := c.auth.AuthorizationHeader(ctx)
	if err != nil {
		return nil, 0, &Error{Kind: KindConfiguration, Message: err.Error(), Err: err}
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, meta.Method, u.String(), reqBody)
	if err != nil {
		return nil, 0, &Error{Kind: KindClient, Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Authorization", header)
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", meta.RequestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, resp.StatusCode, nil
	}
	return nil, resp.StatusCode, classifyResponse(meta.Method, meta.Path, resp.StatusCode, resp.Header, data,
		c.clock.Now(), c.opts.RateLimitFallbackDelay)
}

// resolve joins path to the base URL and merges query into any query the
// path already carries. A leading slash does not escape the base path.
func (c *Connection) resolve(path string, query url.Values) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("path %q must be relative to the base URL", path)
	}

	u := c.baseURL.ResolveReference(ref)
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func encodeBody(req *Request) ([]byte, string, error) {
	if req.Multipart != nil {
		if req.Multipart.ContentType == "" {
			return nil, "", errors.New("multipart content type is required")
		}
		return req.Multipart.Body, req.Multipart.ContentType, nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return payload, "application/json", nil
}

func (c *Connection) onBreakerStateChange(target string, from, to resilience.State) {
	ctx := context.Background()
	c.middleware.Metrics().RecordCircuitTransition(ctx, target, from.String(), to.String())

	fields := []observe.Field{
		observe.F("target", target),
		observe.F("from", from.String()),
		observe.F("to", to.String()),
	}
	if to == resilience.StateOpen {
		c.logger.Warn(ctx, "circuit opened", append(fields, observe.F("break_duration", c.opts.BreakerDuration.String()))...)
		return
	}
	c.logger.Info(ctx, "circuit state changed", fields...)
}
