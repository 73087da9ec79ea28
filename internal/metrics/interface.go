// Package metrics exposes the leaderboard engine's operational counters.
package metrics

// Metrics defines the interface for collecting application metrics.
// Callers depend on this interface; Service backs it with Prometheus and Mock records
// calls for tests.
type Metrics interface {
	IncRefreshes()
	IncStaleDiscards()
	IncFetchFailures()
	IncFeedEvents()
	IncDegradedSessions()
	SessionOpened()
	SessionClosed()
	ObserveFetchDuration(seconds float64)
}
