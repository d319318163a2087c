package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jonwraymond/clickup-go/auth"
	"github.com/jonwraymond/clickup-go/cache"
	"github.com/jonwraymond/clickup-go/internal/clock"
	"github.com/jonwraymond/clickup-go/observe"
	"github.com/jonwraymond/clickup-go/resilience"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testServer counts hits and delegates to the current handler.
type testServer struct {
	*httptest.Server
	hits    atomic.Int32
	handler atomic.Value
}

func newTestServer(t *testing.T, h http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.handler.Store(h)
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		ts.handler.Load().(http.HandlerFunc)(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) setHandler(h http.HandlerFunc) { ts.handler.Store(h) }

func (ts *testServer) options() Options {
	opts := DefaultOptions()
	opts.BaseURL = ts.URL + "/api/v2/"
	opts.PersonalToken = "pk_test"
	opts.RetryBaseDelay = time.Millisecond
	return opts
}

func newTestConnection(t *testing.T, opts Options, extra ...Option) *Connection {
	t.Helper()
	conn, err := NewConnection(opts, extra...)
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func statusHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { writeJSON(w, status, body) }
}

func TestConnection_RequestHeaders(t *testing.T) {
	var got http.Header
	var path string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		path = r.URL.Path
		writeJSON(w, 200, `{"id":"abc"}`)
	})
	conn := newTestConnection(t, ts.options())

	if _, err := conn.Get(context.Background(), "task/abc", nil, nil); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if path != "/api/v2/task/abc" {
		t.Errorf("path = %q, want /api/v2/task/abc", path)
	}
	if v := got.Get("Authorization"); v != "pk_test" {
		t.Errorf("Authorization = %q, want raw personal token", v)
	}
	if v := got.Get("User-Agent"); v != DefaultUserAgent {
		t.Errorf("User-Agent = %q", v)
	}
	if v := got.Get("Accept"); v != "application/json" {
		t.Errorf("Accept = %q", v)
	}
	if _, err := uuid.Parse(got.Get("X-Request-Id")); err != nil {
		t.Errorf("X-Request-Id = %q is not a uuid", got.Get("X-Request-Id"))
	}
	if v := got.Get("Content-Type"); v != "" {
		t.Errorf("GET sent Content-Type %q", v)
	}
}

func TestConnection_OAuthWins(t *testing.T) {
	var header string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		writeJSON(w, 200, `{}`)
	})
	opts := ts.options()
	opts.OAuthToken = "oauth_abc"
	conn := newTestConnection(t, opts)

	_, _ = conn.Get(context.Background(), "user", nil, nil)

	if header != "Bearer oauth_abc" {
		t.Errorf("Authorization = %q, want Bearer oauth_abc", header)
	}
	if conn.AuthMethod() != auth.MethodOAuth {
		t.Errorf("AuthMethod() = %q", conn.AuthMethod())
	}
}

func TestNewConnection_NoCredentials(t *testing.T) {
	ts := newTestServer(t, statusHandler(200, `{}`))
	opts := ts.options()
	opts.PersonalToken = "  "

	_, err := NewConnection(opts)
	if KindOf(err) != KindConfiguration {
		t.Fatalf("NewConnection() kind = %v, want configuration (err = %v)", KindOf(err), err)
	}
	if !errors.Is(err, auth.ErrMissingCredentials) {
		t.Errorf("error %v does not wrap auth.ErrMissingCredentials", err)
	}
	if ts.hits.Load() != 0 {
		t.Error("a request was sent without credentials")
	}
}

func TestNewConnection_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"relative base url", func(o *Options) { o.BaseURL = "api/v2" }},
		{"unsupported scheme", func(o *Options) { o.BaseURL = "ftp://api.clickup.com/" }},
		{"negative retries", func(o *Options) { o.RetryCount = -1 }},
		{"negative timeout", func(o *Options) { o.RequestTimeout = -time.Second }},
		{"negative rate", func(o *Options) { o.RequestsPerMinute = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.PersonalToken = "pk"
			tt.mutate(&opts)
			_, err := NewConnection(opts)
			if !errors.Is(err, ErrInvalidOptions) || KindOf(err) != KindConfiguration {
				t.Errorf("NewConnection() error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestConnection_LeadingSlashStaysUnderBase(t *testing.T) {
	var path, query string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		path, query = r.URL.Path, r.URL.RawQuery
		writeJSON(w, 200, `{}`)
	})
	conn := newTestConnection(t, ts.options())

	_, err := conn.Get(context.Background(), "/team/1/space", map[string]string{"archived": "false"}, nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if path != "/api/v2/team/1/space" || query != "archived=false" {
		t.Errorf("request = %s?%s", path, query)
	}
}

func TestConnection_EmptyBodyIsAbsent(t *testing.T) {
	for _, body := range []string{"", "  ", "null"} {
		ts := newTestServer(t, statusHandler(200, body))
		conn := newTestConnection(t, ts.options())

		var out Task
		found, err := conn.Get(context.Background(), "task/abc", nil, &out)
		if err != nil || found {
			t.Errorf("body %q: Get() = %v, %v; want false, nil", body, found, err)
		}

		task, err := Get[Task](context.Background(), conn, "task/abc", nil)
		if err != nil || task != nil {
			t.Errorf("body %q: Get[Task]() = %v, %v; want nil, nil", body, task, err)
		}
	}
}

func TestConnection_DecodeError(t *testing.T) {
	ts := newTestServer(t, statusHandler(200, `{"id": 12`))
	conn := newTestConnection(t, ts.options())

	_, err := Get[Task](context.Background(), conn, "task/abc", nil)
	if KindOf(err) != KindDecode {
		t.Errorf("kind = %v, want decode (err = %v)", KindOf(err), err)
	}
	if ts.hits.Load() != 1 {
		t.Errorf("hits = %d, decode errors must not be retried", ts.hits.Load())
	}
}

func TestConnection_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantHits int32
	}{
		{"not found", 404, `{"err":"Task not found","ECODE":"ITEM_013"}`, KindNotFound, 1},
		{"unauthorized", 401, `{"err":"Token invalid","ECODE":"OAUTH_025"}`, KindAuth, 1},
		{"forbidden", 403, `{"err":"Team not authorized","ECODE":"OAUTH_027"}`, KindAuth, 1},
		{"validation", 400, `{"err":"Invalid","ECODE":"INPUT_001","errors":{"name":["required"]}}`, KindValidation, 1},
		{"other client", 409, `{"err":"Conflict"}`, KindClient, 1},
		{"server", 500, `{"err":"Internal"}`, KindTransient, 3},
		{"request timeout", 408, ``, KindTransient, 3},
		{"rate limit without retry-after", 429, `{"err":"Rate limit reached","ECODE":"APP_002"}`, KindRateLimit, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, statusHandler(tt.status, tt.body))
			opts := ts.options()
			opts.RetryCount = 2
			opts.BreakerFailureThreshold = 100
			conn := newTestConnection(t, opts)

			_, err := Get[Task](context.Background(), conn, "task/abc", nil)

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not *Error", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", apiErr.Kind, tt.wantKind)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Method != http.MethodGet || apiErr.Path != "task/abc" {
				t.Errorf("Method/Path = %s %s", apiErr.Method, apiErr.Path)
			}
			if got := ts.hits.Load(); got != tt.wantHits {
				t.Errorf("hits = %d, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestConnection_ValidationCarriesFields(t *testing.T) {
	ts := newTestServer(t, statusHandler(400, `{"err":"Invalid input","ECODE":"INPUT_005","errors":{"name":["is required"],"due_date":["must be a number"]}}`))
	conn := newTestConnection(t, ts.options())

	_, err := Post[Task](context.Background(), conn, "list/1/task", CreateTaskRequest{})

	var apiErr *Error
	if !errors.As(err, &apiErr) || !IsValidation(err) {
		t.Fatalf("error = %v, want validation", err)
	}
	if apiErr.Code != "INPUT_005" || apiErr.Message != "Invalid input" {
		t.Errorf("Code/Message = %q/%q", apiErr.Code, apiErr.Message)
	}
	if got := apiErr.FieldErrors["name"]; len(got) != 1 || got[0] != "is required" {
		t.Errorf("FieldErrors[name] = %v", got)
	}
}

func TestConnection_TransientRecovers(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if calls.Add(1) < 3 {
			writeJSON(w, 503, `{"err":"unavailable"}`)
			return
		}
		writeJSON(w, 200, `{"id":"t1","name":"Write docs"}`)
	})
	conn := newTestConnection(t, ts.options())

	task, err := Post[Task](context.Background(), conn, "list/1/task", CreateTaskRequest{Name: "Write docs"})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if task.ID != "t1" {
		t.Errorf("task.ID = %q", task.ID)
	}
	if len(bodies) != 3 {
		t.Fatalf("attempts = %d, want 3", len(bodies))
	}
	for i, b := range bodies {
		if b != `{"name":"Write docs"}` {
			t.Errorf("attempt %d body = %q, want the full payload on every attempt", i+1, b)
		}
	}
}

// runAsync runs fn in a goroutine and returns a channel with its error.
func runAsync(fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	return done
}

func awaitResult(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("call did not finish")
		return nil
	}
}

func TestConnection_BackoffSchedule(t *testing.T) {
	ts := newTestServer(t, statusHandler(503, `{"err":"unavailable"}`))
	fake := clock.Fake(epoch)
	opts := ts.options()
	opts.RetryBaseDelay = 2 * time.Second
	opts.RetryCount = 3
	conn := newTestConnection(t, opts, WithClock(fake))

	done := runAsync(func() error {
		_, err := conn.Get(context.Background(), "task/abc", nil, nil)
		return err
	})

	for _, want := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second} {
		fake.WaitForTimers(1)
		got, _ := fake.NextDelay()
		if got != want {
			t.Errorf("delay = %v, want %v", got, want)
		}
		fake.Advance(got)
	}

	err := awaitResult(t, done)
	if !IsTransient(err) {
		t.Errorf("error = %v, want transient", err)
	}
	if got := ts.hits.Load(); got != 4 {
		t.Errorf("attempts = %d, want 1 + RetryCount = 4", got)
	}
}

func TestConnection_RetryAfter(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		wantDelay  time.Duration
	}{
		{"seconds", "3", 3 * time.Second},
		{"http date", epoch.Add(7 * time.Second).Format(http.TimeFormat), 7 * time.Second},
		{"unparseable", "soon", 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.Header().Set("Retry-After", tt.retryAfter)
					writeJSON(w, 429, `{"err":"Rate limit reached"}`)
					return
				}
				writeJSON(w, 200, `{"id":"abc"}`)
			})
			fake := clock.Fake(epoch)
			opts := ts.options()
			opts.RetryCount = 0
			conn := newTestConnection(t, opts, WithClock(fake))

			done := runAsync(func() error {
				_, err := Get[Task](context.Background(), conn, "task/abc", nil)
				return err
			})

			fake.WaitForTimers(1)
			if got, _ := fake.NextDelay(); got != tt.wantDelay {
				t.Errorf("delay = %v, want %v", got, tt.wantDelay)
			}
			fake.Advance(tt.wantDelay)

			if err := awaitResult(t, done); err != nil {
				t.Errorf("Get() error = %v", err)
			}
			if got := ts.hits.Load(); got != 2 {
				t.Errorf("hits = %d, want 2", got)
			}
		})
	}
}

func TestConnection_RetryAfterOnlyOnce(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		writeJSON(w, 429, `{"err":"Rate limit reached","ECODE":"APP_002"}`)
	})
	opts := ts.options()
	opts.RetryCount = 0
	conn := newTestConnection(t, opts)

	_, err := conn.Get(context.Background(), "task/abc", nil, nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) || !IsRateLimited(err) {
		t.Fatalf("error = %v, want rate limit", err)
	}
	if !apiErr.HasRetryAfter {
		t.Error("HasRetryAfter = false")
	}
	if got := ts.hits.Load(); got != 2 {
		t.Errorf("hits = %d, want exactly one rate-limit retry", got)
	}
}

func TestConnection_HugeRetryAfterIsNotHonoured(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "99999999999999")
		writeJSON(w, 429, `{"err":"Rate limit reached","ECODE":"APP_002"}`)
	})
	opts := ts.options()
	opts.RetryCount = 0
	conn := newTestConnection(t, opts, WithClock(clock.Fake(epoch)))

	done := runAsync(func() error {
		_, err := conn.Get(context.Background(), "task/abc", nil, nil)
		return err
	})
	err := awaitResult(t, done)

	var apiErr *Error
	if !errors.As(err, &apiErr) || !IsRateLimited(err) {
		t.Fatalf("error = %v, want rate limit", err)
	}
	if apiErr.RetryAfter <= maxRetryDelay {
		t.Errorf("RetryAfter = %v, want the saturated server value", apiErr.RetryAfter)
	}
	if got := ts.hits.Load(); got != 1 {
		t.Errorf("hits = %d, want no wait beyond the retry cap", got)
	}
}

func TestConnection_CircuitBreaker(t *testing.T) {
	ts := newTestServer(t, statusHandler(500, `{"err":"boom"}`))
	fake := clock.Fake(epoch)
	opts := ts.options()
	opts.RetryCount = 0
	opts.BreakerFailureThreshold = 3
	opts.BreakerDuration = 30 * time.Second
	conn := newTestConnection(t, opts, WithClock(fake))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := conn.Get(ctx, "task/abc", nil, nil); !IsTransient(err) {
			t.Fatalf("call %d error = %v, want transient", i+1, err)
		}
	}
	if got := conn.Breaker().State(); got != resilience.StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	_, err := conn.Get(ctx, "task/abc", nil, nil)
	if !IsCircuitOpen(err) || !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("error = %v, want circuit open", err)
	}
	if got := ts.hits.Load(); got != 3 {
		t.Errorf("hits = %d, open circuit must not send", got)
	}

	fake.Advance(30 * time.Second)
	ts.setHandler(statusHandler(200, `{"id":"abc"}`))

	if _, err := conn.Get(ctx, "task/abc", nil, nil); err != nil {
		t.Fatalf("trial call error = %v", err)
	}
	if got := conn.Breaker().State(); got != resilience.StateClosed {
		t.Errorf("state = %v, want closed after successful trial", got)
	}
	if got := conn.Breaker().Metrics().Failures; got != 0 {
		t.Errorf("failures = %d, want 0", got)
	}
}

func TestConnection_TrialFailureReopens(t *testing.T) {
	ts := newTestServer(t, statusHandler(502, ``))
	fake := clock.Fake(epoch)
	opts := ts.options()
	opts.RetryCount = 0
	opts.BreakerFailureThreshold = 1
	conn := newTestConnection(t, opts, WithClock(fake))
	ctx := context.Background()

	_, _ = conn.Get(ctx, "user", nil, nil)
	fake.Advance(DefaultBreakerDuration)

	if _, err := conn.Get(ctx, "user", nil, nil); !IsTransient(err) {
		t.Fatalf("trial error = %v, want transient", err)
	}
	if got := conn.Breaker().State(); got != resilience.StateOpen {
		t.Errorf("state = %v, want open after failed trial", got)
	}

	fake.Advance(DefaultBreakerDuration - time.Second)
	if _, err := conn.Get(ctx, "user", nil, nil); !IsCircuitOpen(err) {
		t.Errorf("error = %v, want circuit open while the restarted timer runs", err)
	}
}

func TestConnection_NonHandledFailuresKeepCircuitClosed(t *testing.T) {
	ts := newTestServer(t, statusHandler(404, `{"err":"not found"}`))
	opts := ts.options()
	opts.BreakerFailureThreshold = 1
	conn := newTestConnection(t, opts)

	for i := 0; i < 3; i++ {
		_, _ = conn.Get(context.Background(), "task/missing", nil, nil)
	}
	if got := conn.Breaker().State(); got != resilience.StateClosed {
		t.Errorf("state = %v, want closed", got)
	}
}

func TestConnection_SharedRegistry(t *testing.T) {
	ts := newTestServer(t, statusHandler(500, ``))
	opts := ts.options()
	opts.RetryCount = 0
	opts.BreakerFailureThreshold = 1
	registry := resilience.NewBreakerRegistry(BreakerConfig(opts))

	a := newTestConnection(t, opts, WithBreakerRegistry(registry))
	b := newTestConnection(t, opts, WithBreakerRegistry(registry))

	_, _ = a.Get(context.Background(), "user", nil, nil)
	if _, err := b.Get(context.Background(), "user", nil, nil); !IsCircuitOpen(err) {
		t.Errorf("second connection error = %v, want circuit open", err)
	}
}

func TestConnection_CancelDuringBackoff(t *testing.T) {
	ts := newTestServer(t, statusHandler(503, ``))
	fake := clock.Fake(epoch)
	opts := ts.options()
	opts.RetryBaseDelay = 2 * time.Second
	conn := newTestConnection(t, opts, WithClock(fake))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(func() error {
		_, err := conn.Get(ctx, "task/abc", nil, nil)
		return err
	})

	fake.WaitForTimers(1)
	cancel()

	err := awaitResult(t, done)
	if !IsCanceled(err) || IsTransient(err) {
		t.Errorf("error = %v (kind %v), want canceled", err, KindOf(err))
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error %v does not wrap context.Canceled", err)
	}
	if got := ts.hits.Load(); got != 1 {
		t.Errorf("hits = %d, want no attempts after cancellation", got)
	}
	if got := conn.Breaker().Metrics().Failures; got != 0 {
		t.Errorf("breaker failures = %d, cancellation must not count", got)
	}
}

func TestConnection_AttemptTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	opts := ts.options()
	opts.RetryCount = 1
	opts.RequestTimeout = 20 * time.Millisecond
	conn := newTestConnection(t, opts)

	_, err := conn.Get(context.Background(), "task/slow", nil, nil)
	if !IsTransient(err) || !errors.Is(err, resilience.ErrTimeout) {
		t.Errorf("error = %v, want transient ErrTimeout", err)
	}
	if got := ts.hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}

func TestConnection_CachedGet(t *testing.T) {
	ts := newTestServer(t, statusHandler(200, `{"id":"abc","name":"cached"}`))
	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	mw, err := cache.NewMiddleware(mem, nil, cache.DefaultPolicy(), nil)
	if err != nil {
		t.Fatal(err)
	}
	conn := newTestConnection(t, ts.options(), WithCache(mw))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		task, err := Get[Task](ctx, conn, "task/abc", nil)
		if err != nil || task.Name != "cached" {
			t.Fatalf("Get() = %+v, %v", task, err)
		}
	}
	if got := ts.hits.Load(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}

	if err := PutNoContent(ctx, conn, "task/abc", map[string]string{"name": "renamed"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	_, _ = Get[Task](ctx, conn, "task/abc", nil)
	if got := ts.hits.Load(); got != 3 {
		t.Errorf("hits = %d, want the write to invalidate the cached read", got)
	}
}

func TestConnection_CachedGetCancellationStaysWithCaller(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.setHandler(func(w http.ResponseWriter, r *http.Request) {
		if ts.hits.Load() == 1 {
			<-r.Context().Done()
			return
		}
		writeJSON(w, 200, `{"id":"abc","name":"fresh"}`)
	})
	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	mw, err := cache.NewMiddleware(mem, nil, cache.DefaultPolicy(), nil)
	if err != nil {
		t.Fatal(err)
	}
	opts := ts.options()
	opts.RetryCount = 0
	conn := newTestConnection(t, opts, WithCache(mw))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := runAsync(func() error {
		_, err := Get[Task](firstCtx, conn, "task/abc", nil)
		return err
	})
	deadline := time.Now().Add(5 * time.Second)
	for ts.hits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	var task *Task
	second := runAsync(func() error {
		var err error
		task, err = Get[Task](context.Background(), conn, "task/abc", nil)
		return err
	})
	time.Sleep(20 * time.Millisecond)
	cancelFirst()

	if err := awaitResult(t, first); !IsCanceled(err) {
		t.Errorf("cancelled caller error = %v, want canceled", err)
	}
	if err := awaitResult(t, second); err != nil {
		t.Fatalf("live caller error = %v (kind %s), want success", err, KindOf(err))
	}
	if task == nil || task.Name != "fresh" {
		t.Errorf("live caller task = %+v", task)
	}
	if got := ts.hits.Load(); got != 2 {
		t.Errorf("hits = %d, want the live caller to send its own request", got)
	}
}

// failingDeleteCache drops nothing on Delete, as a Redis outage would.
type failingDeleteCache struct {
	*cache.MemoryCache
}

func (failingDeleteCache) Delete(context.Context, string) error {
	return errors.New("redis: connection refused")
}

func TestConnection_InvalidationFailureIsLogged(t *testing.T) {
	ts := newTestServer(t, statusHandler(200, `{}`))
	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	mw, err := cache.NewMiddleware(failingDeleteCache{mem}, nil, cache.DefaultPolicy(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	conn := newTestConnection(t, ts.options(),
		WithCache(mw),
		WithLogger(observe.NewLoggerWithWriter("warn", &logs)),
	)

	if err := PutNoContent(context.Background(), conn, "task/abc", map[string]string{"name": "x"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !bytes.Contains(logs.Bytes(), []byte("cache invalidation failed")) {
		t.Errorf("expected invalidation warning, got %q", logs.String())
	}
	if !bytes.Contains(logs.Bytes(), []byte("connection refused")) {
		t.Errorf("warning lost the cause: %q", logs.String())
	}
}

func TestConnection_DeleteVariants(t *testing.T) {
	var method, body string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		method, body = r.Method, string(b)
		writeJSON(w, 200, `{"deleted":true}`)
	})
	conn := newTestConnection(t, ts.options())
	ctx := context.Background()

	if err := Delete(ctx, conn, "task/abc"); err != nil || method != "DELETE" || body != "" {
		t.Errorf("Delete() = %v; method %s body %q", err, method, body)
	}

	if err := DeleteWithBody(ctx, conn, "task/abc/tag", map[string]string{"tag": "x"}); err != nil || body != `{"tag":"x"}` {
		t.Errorf("DeleteWithBody() = %v; body %q", err, body)
	}

	out, err := DeleteFor[struct {
		Deleted bool `json:"deleted"`
	}](ctx, conn, "webhook/1", nil)
	if err != nil || out == nil || !out.Deleted {
		t.Errorf("DeleteFor() = %+v, %v", out, err)
	}
}

func TestConnection_PostJSON(t *testing.T) {
	var contentType string
	var got map[string]any
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	})
	conn := newTestConnection(t, ts.options())

	due := TimestampFromMillis(1700000000000)
	err := PostNoContent(context.Background(), conn, "list/1/task", CreateTaskRequest{
		Name:        "Ship",
		DueDate:     &due,
		DueDateTime: true,
	})
	if err != nil {
		t.Fatalf("PostNoContent() error = %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if got["due_date"] != "1700000000000" || got["due_date_time"] != true || got["name"] != "Ship" {
		t.Errorf("payload = %v", got)
	}
}

func TestConnection_PostMultipart(t *testing.T) {
	var fileName, content, contentType string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, 400, `{"err":"bad multipart"}`)
			return
		}
		f, hdr, err := r.FormFile("attachment")
		if err != nil {
			writeJSON(w, 400, `{"err":"no file"}`)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		fileName, content = hdr.Filename, string(b)
		writeJSON(w, 200, `{"id":"att1","title":"notes.txt","url":"https://example.com/a","date":1700000000000}`)
	})
	conn := newTestConnection(t, ts.options())

	m, err := NewMultipart(nil, FilePart{FileName: "notes.txt", ContentType: "text/plain", Content: []byte("hello")})
	if err != nil {
		t.Fatalf("NewMultipart() error = %v", err)
	}
	att, err := PostMultipart[Attachment](context.Background(), conn, "task/abc/attachment", m)
	if err != nil {
		t.Fatalf("PostMultipart() error = %v", err)
	}

	if fileName != "notes.txt" || content != "hello" {
		t.Errorf("server saw %q = %q", fileName, content)
	}
	if contentType != m.ContentType {
		t.Errorf("Content-Type = %q, want %q", contentType, m.ContentType)
	}
	if att.ID != "att1" || att.Date.Millis() != 1700000000000 {
		t.Errorf("attachment = %+v", att)
	}
}

func TestConnection_ExpiredOAuthTokenWarns(t *testing.T) {
	ts := newTestServer(t, statusHandler(200, `{}`))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": epoch.Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	opts := ts.options()
	opts.OAuthToken = token
	newTestConnection(t, opts,
		WithClock(clock.Fake(epoch)),
		WithLogger(observe.NewLoggerWithWriter("warn", &logs)),
	)

	if !bytes.Contains(logs.Bytes(), []byte("oauth token has expired")) {
		t.Errorf("expected expiry warning, got %q", logs.String())
	}
	if bytes.Contains(logs.Bytes(), []byte(token)) {
		t.Error("token leaked into logs")
	}
}

func TestConnection_ClientSideLimits(t *testing.T) {
	ts := newTestServer(t, statusHandler(200, `{}`))
	opts := ts.options()
	opts.RequestsPerMinute = 600
	opts.MaxConcurrentRequests = 2
	conn := newTestConnection(t, opts)

	for i := 0; i < 5; i++ {
		if _, err := conn.Get(context.Background(), "user", nil, nil); err != nil {
			t.Fatalf("Get() #%d error = %v", i+1, err)
		}
	}
	if got := ts.hits.Load(); got != 5 {
		t.Errorf("hits = %d, want 5", got)
	}
}
