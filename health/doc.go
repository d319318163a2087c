// Package health reports whether a ClickUp client can currently do useful
// work.
//
// Two checkers cover the client itself: BreakerChecker reads the circuit
// breaker state without sending anything, and PingChecker makes a cheap
// authenticated call. An Aggregator runs checkers in parallel and folds
// their results into one Status.
//
//	agg := health.NewAggregator()
//	agg.Register("circuit", health.NewBreakerChecker("circuit", client.Connection().Breaker()))
//	agg.Register("api", health.NewAPIChecker(client, health.PingConfig{}))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// Handler exposes the same report as JSON for applications that serve a
// health endpoint.
package health
