package config

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/jonwraymond/clickup-go/clickup"
	"github.com/jonwraymond/clickup-go/health"
)

func newUserServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"user":{"id":7,"username":"grace"}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func configFor(srv *httptest.Server) *Config {
	cfg := validConfig()
	cfg.Client.BaseURL = srv.URL + "/api/v2/"
	cfg.Cache = CacheConfig{
		Enabled:    true,
		Backend:    "memory",
		MaxEntries: 8,
		DefaultTTL: time.Minute,
		MaxTTL:     time.Hour,
		KeyPrefix:  "test",
	}
	return cfg
}

func TestConfig_NewClient_MemoryCache(t *testing.T) {
	srv, hits := newUserServer(t)
	cfg := configFor(srv)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	ctx := context.Background()
	client, err := cfg.NewClient(ctx, clickup.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close(ctx)

	for i := 0; i < 2; i++ {
		user, err := client.Users.GetAuthorizedUser(ctx)
		if err != nil || user.Username != "grace" {
			t.Fatalf("GetAuthorizedUser() = %+v, %v", user, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("hits = %d, want the second read served from cache", got)
	}
	if client.Cache == nil || client.Observer == nil {
		t.Error("collaborators not exposed")
	}
}

func TestConfig_NewClient_RedisCache(t *testing.T) {
	srv, hits := newUserServer(t)
	mr := miniredis.RunT(t)
	cfg := configFor(srv)
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = mr.Addr()

	ctx := context.Background()
	client, err := cfg.NewClient(ctx, clickup.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := client.Users.GetAuthorizedUser(ctx); err != nil {
			t.Fatalf("GetAuthorizedUser() error = %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0][:9] != "test:GET:" {
		t.Errorf("redis keys = %v", keys)
	}

	if err := client.Close(ctx); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestConfig_NewClient_RedisUnreachable(t *testing.T) {
	srv, _ := newUserServer(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := configFor(srv)
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = addr

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cfg.NewClient(ctx); err == nil {
		t.Error("NewClient() succeeded against a closed redis")
	}
}

func TestConfig_NewClient_NoCredentials(t *testing.T) {
	srv, hits := newUserServer(t)
	cfg := configFor(srv)
	cfg.Client.PersonalToken = ""

	_, err := cfg.NewClient(context.Background())
	if clickup.KindOf(err) != clickup.KindConfiguration {
		t.Errorf("NewClient() error = %v, want configuration", err)
	}
	if hits.Load() != 0 {
		t.Error("request sent without credentials")
	}
}

func TestClient_Health(t *testing.T) {
	srv, _ := newUserServer(t)
	mr := miniredis.RunT(t)
	cfg := configFor(srv)
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = mr.Addr()

	ctx := context.Background()
	client, err := cfg.NewClient(ctx, clickup.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close(ctx)

	agg := client.Health(health.PingConfig{})
	names := agg.CheckerNames()
	if len(names) != 3 || names[0] != "circuit" || names[1] != "api" || names[2] != "cache" {
		t.Fatalf("CheckerNames() = %v", names)
	}

	results := agg.CheckAll(ctx)
	if got := agg.OverallStatus(results); got != health.StatusHealthy {
		t.Errorf("OverallStatus() = %v, results = %+v", got, results)
	}

	mr.Close()
	results = agg.CheckAll(ctx)
	if got := results["cache"].Status; got != health.StatusUnhealthy {
		t.Errorf("cache status after redis shutdown = %v, want unhealthy", got)
	}
}

func TestClient_Health_MemoryCacheHasNoCachePing(t *testing.T) {
	srv, _ := newUserServer(t)
	ctx := context.Background()
	client, err := configFor(srv).NewClient(ctx, clickup.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close(ctx)

	if names := client.Health(health.PingConfig{}).CheckerNames(); len(names) != 2 {
		t.Errorf("CheckerNames() = %v, want circuit and api only", names)
	}
}
