package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	refreshes        int
	staleDiscards    int
	fetchFailures    int
	feedEvents       int
	degradedSessions int
	activeSessions   int
	fetchDurations   []float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{fetchDurations: make([]float64, 0)}
}

func (m *Mock) IncRefreshes()        { m.inc(&m.refreshes, 1) }
func (m *Mock) IncStaleDiscards()    { m.inc(&m.staleDiscards, 1) }
func (m *Mock) IncFetchFailures()    { m.inc(&m.fetchFailures, 1) }
func (m *Mock) IncFeedEvents()       { m.inc(&m.feedEvents, 1) }
func (m *Mock) IncDegradedSessions() { m.inc(&m.degradedSessions, 1) }
func (m *Mock) SessionOpened()       { m.inc(&m.activeSessions, 1) }
func (m *Mock) SessionClosed()       { m.inc(&m.activeSessions, -1) }

func (m *Mock) ObserveFetchDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchDurations = append(m.fetchDurations, seconds)
}

func (m *Mock) inc(field *int, by int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field += by
}

func (m *Mock) get(field *int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *field
}

// Refreshes returns the number of times IncRefreshes was called.
func (m *Mock) Refreshes() int { return m.get(&m.refreshes) }

// StaleDiscards returns the number of times IncStaleDiscards was called.
func (m *Mock) StaleDiscards() int { return m.get(&m.staleDiscards) }

// FetchFailures returns the number of times IncFetchFailures was called.
func (m *Mock) FetchFailures() int { return m.get(&m.fetchFailures) }

// FeedEvents returns the number of times IncFeedEvents was called.
func (m *Mock) FeedEvents() int { return m.get(&m.feedEvents) }

// DegradedSessions returns the number of times IncDegradedSessions was called.
func (m *Mock) DegradedSessions() int { return m.get(&m.degradedSessions) }

// ActiveSessions returns opened minus closed sessions.
func (m *Mock) ActiveSessions() int { return m.get(&m.activeSessions) }

// FetchDurations returns a copy of every observed fetch duration.
func (m *Mock) FetchDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.fetchDurations...)
}

// Noop discards every metric. It is the default for components built without metrics.
type Noop struct{}

var _ Metrics = Noop{}

func (Noop) IncRefreshes()                {}
func (Noop) IncStaleDiscards()            {}
func (Noop) IncFetchFailures()            {}
func (Noop) IncFeedEvents()               {}
func (Noop) IncDegradedSessions()         {}
func (Noop) SessionOpened()               {}
func (Noop) SessionClosed()               {}
func (Noop) ObserveFetchDuration(float64) {}
