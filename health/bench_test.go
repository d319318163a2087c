package health

import (
	"context"
	"testing"

	"github.com/jonwraymond/clickup-go/resilience"
)

func BenchmarkAggregator_CheckAll(b *testing.B) {
	agg := NewAggregator()
	agg.Register("circuit", NewBreakerChecker("circuit", resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})))
	agg.Register("ping", NewPingChecker("ping", func(context.Context) error { return nil }, PingConfig{}))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = agg.CheckAll(ctx)
	}
}

func BenchmarkBreakerChecker_Check(b *testing.B) {
	c := NewBreakerChecker("circuit", resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{}))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Check(ctx)
	}
}
