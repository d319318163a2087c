package health

import (
	"context"
	"time"

	"github.com/jonwraymond/clickup-go/clickup"
)

// PingFunc makes one cheap call against a dependency.
type PingFunc func(ctx context.Context) error

// PingConfig configures a PingChecker.
type PingConfig struct {
	// SlowThreshold marks a successful ping slower than this as degraded.
	// Zero disables the latency check.
	SlowThreshold time.Duration
}

// PingChecker calls a PingFunc and classifies the outcome with the clickup
// error kinds: throttling is degraded, everything else that fails is
// unhealthy.
type PingChecker struct {
	name   string
	ping   PingFunc
	config PingConfig
}

// NewPingChecker creates a checker around ping.
func NewPingChecker(name string, ping PingFunc, config PingConfig) *PingChecker {
	return &PingChecker{name: name, ping: ping, config: config}
}

// NewAPIChecker pings the API by fetching the authorized user, which
// proves both reachability and that the credential is accepted.
func NewAPIChecker(client *clickup.Client, config PingConfig) *PingChecker {
	return NewPingChecker("clickup", func(ctx context.Context) error {
		_, err := client.Users.GetAuthorizedUser(ctx)
		return err
	}, config)
}

// Name implements Checker.
func (c *PingChecker) Name() string { return c.name }

// Check implements Checker.
func (c *PingChecker) Check(ctx context.Context) Result {
	start := time.Now()
	err := c.ping(ctx)
	latency := time.Since(start)

	var r Result
	switch kind := clickup.KindOf(err); {
	case err == nil:
		if c.config.SlowThreshold > 0 && latency > c.config.SlowThreshold {
			r = Degraded("slow response")
		} else {
			r = Healthy("reachable")
		}
	case kind == clickup.KindRateLimit:
		r = Degraded("rate limited")
		r.Kind, r.Err = kind, err
	case kind == clickup.KindCircuitOpen:
		r = Unhealthy("circuit open", err)
	case kind == clickup.KindAuth, kind == clickup.KindConfiguration:
		r = Unhealthy("credential rejected", err)
	case kind == clickup.KindCanceled:
		r = Unhealthy("check canceled", err)
	default:
		r = Unhealthy("unreachable", err)
	}
	r.Latency = latency
	return r
}

var _ Checker = (*PingChecker)(nil)
