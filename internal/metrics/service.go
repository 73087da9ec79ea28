package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// Service holds all the Prometheus metrics for the application.
type Service struct {
	Refreshes        prometheus.Counter
	StaleDiscards    prometheus.Counter
	FetchFailures    prometheus.Counter
	FeedEvents       prometheus.Counter
	DegradedSessions prometheus.Counter
	ActiveSessions   prometheus.Gauge
	FetchDuration    prometheus.Histogram
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golf_leaderboard_refreshes_total",
			Help: "Standings recomputations applied to a live session.",
		}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golf_leaderboard_stale_discards_total",
			Help: "Fetch results dropped because a newer fetch had been issued.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golf_leaderboard_fetch_failures_total",
			Help: "Score fetches that failed after all retries.",
		}),
		FeedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golf_leaderboard_feed_events_total",
			Help: "Change notifications received by leaderboard sessions.",
		}),
		DegradedSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golf_leaderboard_degraded_sessions_total",
			Help: "Times a session fell back to polling because the change feed was unavailable.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "golf_leaderboard_active_sessions",
			Help: "Leaderboard sessions currently running.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "golf_leaderboard_fetch_duration_seconds",
			Help:    "Duration of a standings fetch, retries included.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	reg.MustRegister(
		s.Refreshes,
		s.StaleDiscards,
		s.FetchFailures,
		s.FeedEvents,
		s.DegradedSessions,
		s.ActiveSessions,
		s.FetchDuration,
	)

	return s
}

func (s *Service) IncRefreshes()        { s.Refreshes.Inc() }
func (s *Service) IncStaleDiscards()    { s.StaleDiscards.Inc() }
func (s *Service) IncFetchFailures()    { s.FetchFailures.Inc() }
func (s *Service) IncFeedEvents()       { s.FeedEvents.Inc() }
func (s *Service) IncDegradedSessions() { s.DegradedSessions.Inc() }
func (s *Service) SessionOpened()       { s.ActiveSessions.Inc() }
func (s *Service) SessionClosed()       { s.ActiveSessions.Dec() }

func (s *Service) ObserveFetchDuration(seconds float64) {
	s.FetchDuration.Observe(seconds)
}
