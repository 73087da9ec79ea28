package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/trentd187/golf-tournaments/internal/changefeed"
	"github.com/trentd187/golf-tournaments/internal/metrics"
)

// ErrNoTournament is returned by Run when the session was created without a tournament id.
var ErrNoTournament = errors.New("leaderboard: no tournament selected")

// State is the lifecycle state of a Session.
type State string

const (
	StateIdle       State = "idle"       // no tournament, or torn down
	StateLoading    State = "loading"    // first fetch in flight
	StateLive       State = "live"       // standings shown
	StateRefreshing State = "refreshing" // standings shown, newer fetch in flight
)

// Snapshot is what a viewer sees at one moment. Snapshots are values: a published
// Snapshot never changes afterwards.
type Snapshot struct {
	TournamentID   string           `json:"tournament_id"`
	TournamentName string           `json:"tournament_name"`
	State          State            `json:"state"`
	Standings      []StandingsEntry `json:"standings"`
	// Empty is true once a fetch succeeded and returned no rankable scores.
	Empty bool `json:"empty"`
	// Live is false when the change feed could not be subscribed (or dropped) and the
	// standings are only refreshed by polling or by hand.
	Live bool `json:"live"`
	// Error describes the last failed fetch. Standings still hold the last good result.
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Source is the read side of the data store that a Session needs.
type Source interface {
	FetchTournamentName(ctx context.Context, tournamentID string) (string, error)
	FetchScores(ctx context.Context, tournamentID string) ([]ScoreRow, error)
}

// Refresher runs fn periodically under key until cancel is called.
// A Session uses it to keep polling while its change feed is unavailable.
type Refresher interface {
	Schedule(key string, fn func()) (cancel func(), err error)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithRetry sets how many times a failed fetch is retried and the first backoff delay.
// Zero retries means a single attempt.
func WithRetry(retries uint64, base time.Duration) Option {
	return func(s *Session) {
		s.retries = retries
		if base > 0 {
			s.retryBase = base
		}
	}
}

// WithRefresher enables periodic polling while the change feed is unavailable.
func WithRefresher(r Refresher) Option {
	return func(s *Session) { s.refresher = r }
}

// Session keeps the standings of one tournament current for one viewer.
//
// Run owns all session state on a single goroutine. Every change notification issues
// a new fetch tagged with an increasing token; fetches run concurrently and report
// back to the loop, which applies a result only if its token is still the latest.
// Results of superseded fetches are dropped when they arrive.
type Session struct {
	id           string
	tournamentID string
	source       Source
	feed         changefeed.Feed
	logger       *log.Logger
	metrics      metrics.Metrics
	refresher    Refresher
	retries      uint64
	retryBase    time.Duration

	refresh chan struct{}
	results chan fetchResult
	updates chan Snapshot

	mu      sync.RWMutex
	current Snapshot
}

type fetchResult struct {
	token   uint64
	name    string
	nameErr error
	rows    []ScoreRow
	err     error
	took    time.Duration
}

// NewSession prepares a session for tournamentID. Nothing happens until Run is called.
func NewSession(tournamentID string, src Source, feed changefeed.Feed, opts ...Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		tournamentID: tournamentID,
		source:       src,
		feed:         feed,
		logger:       log.Default(),
		metrics:      metrics.Noop{},
		retries:      2,
		retryBase:    100 * time.Millisecond,
		refresh:      make(chan struct{}, 1),
		results:      make(chan fetchResult),
		updates:      make(chan Snapshot, 1),
		current:      Snapshot{TournamentID: tournamentID, State: StateIdle, Standings: []StandingsEntry{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id, "tournament", tournamentID)
	return s
}

// Updates delivers published snapshots. Only the most recent unread snapshot is kept,
// so a slow reader skips intermediate states rather than blocking the session.
func (s *Session) Updates() <-chan Snapshot { return s.updates }

// Snapshot returns the most recently published snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// State is shorthand for Snapshot().State.
func (s *Session) State() State { return s.Snapshot().State }

// Refresh asks the session to refetch now. Requests made while one is already pending
// collapse into one.
func (s *Session) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Run drives the session until ctx is cancelled. On return the subscription has been
// released, any in-flight fetch result will be ignored and the state is Idle.
func (s *Session) Run(ctx context.Context) error {
	if s.tournamentID == "" {
		return ErrNoTournament
	}

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	// Fetch goroutines inherit loopCtx so teardown also cancels their retries.
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		latest      uint64
		sub         changefeed.Subscription
		events      <-chan changefeed.Event
		stopPolling = func() {}
	)

	issue := func() {
		latest++
		go s.fetch(loopCtx, latest)
	}

	subscribe := func() bool {
		var err error
		sub, err = s.feed.Subscribe(loopCtx, changefeed.ScoresFor(s.tournamentID))
		if err != nil {
			s.logger.Warn("change feed unavailable, falling back to polling", "err", err)
			sub, events = nil, nil
			return false
		}
		events = sub.Events()
		return true
	}

	degrade := func() {
		s.metrics.IncDegradedSessions()
		stopPolling()
		stopPolling = s.startPolling()
	}

	defer func() {
		if sub != nil {
			sub.Release()
		}
		stopPolling()
		latest++ // anything still in flight is now stale
		s.publish(func(snap *Snapshot) {
			snap.State = StateIdle
			snap.Live = false
		})
	}()

	live := subscribe()
	if !live {
		degrade()
	}
	s.publish(func(snap *Snapshot) {
		snap.State = StateLoading
		snap.Live = live
	})
	issue()

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-events:
			if !ok {
				s.logger.Warn("change feed dropped the subscription")
				sub.Release()
				sub, events = nil, nil
				degrade()
				s.publish(func(snap *Snapshot) {
					snap.Live = false
					if snap.State == StateLive {
						snap.State = StateRefreshing
					}
				})
				issue()
				continue
			}
			s.metrics.IncFeedEvents()
			s.publish(func(snap *Snapshot) {
				if snap.State == StateLive {
					snap.State = StateRefreshing
				}
			})
			issue()

		case <-s.refresh:
			resubscribed := false
			if sub == nil && subscribe() {
				s.logger.Info("change feed restored")
				stopPolling()
				stopPolling = func() {}
				resubscribed = true
			}
			s.publish(func(snap *Snapshot) {
				if resubscribed {
					snap.Live = true
				}
				if snap.State == StateLive {
					snap.State = StateRefreshing
				}
			})
			issue()

		case res := <-s.results:
			if res.token != latest {
				s.metrics.IncStaleDiscards()
				s.logger.Debug("discarding stale fetch result", "token", res.token, "latest", latest)
				continue
			}
			s.apply(res)
		}
	}
}

func (s *Session) apply(res fetchResult) {
	s.metrics.ObserveFetchDuration(res.took.Seconds())
	if res.err != nil {
		s.metrics.IncFetchFailures()
		s.logger.Error("leaderboard fetch failed", "err", res.err)
		s.publish(func(snap *Snapshot) {
			snap.State = StateLive
			snap.Error = res.err.Error()
		})
		return
	}
	if res.nameErr != nil {
		s.logger.Warn("could not load tournament name", "err", res.nameErr)
	}

	standings := ComputeStandings(res.rows)
	s.metrics.IncRefreshes()
	s.publish(func(snap *Snapshot) {
		snap.State = StateLive
		snap.Standings = standings
		snap.Empty = len(standings) == 0
		snap.Error = ""
		snap.UpdatedAt = time.Now()
		if res.name != "" {
			snap.TournamentName = res.name
		}
	})
}

// fetch loads the tournament name and its scores, retrying score failures with
// exponential backoff. A missing name is not fatal; the previous one is kept.
func (s *Session) fetch(ctx context.Context, token uint64) {
	start := time.Now()
	res := fetchResult{token: token}

	res.name, res.nameErr = s.source.FetchTournamentName(ctx, s.tournamentID)

	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(s.retryBase))
	res.err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		rows, err := s.source.FetchScores(ctx, s.tournamentID)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("fetch scores: %w", err))
		}
		res.rows = rows
		return nil
	})
	res.took = time.Since(start)

	select {
	case s.results <- res:
	case <-ctx.Done():
	}
}

func (s *Session) startPolling() (stop func()) {
	if s.refresher == nil {
		return func() {}
	}
	cancel, err := s.refresher.Schedule("leaderboard:"+s.id, s.Refresh)
	if err != nil {
		s.logger.Error("could not schedule fallback polling", "err", err)
		return func() {}
	}
	return cancel
}

// publish applies change to the current snapshot and hands the result to readers.
// Only the Run goroutine calls it.
func (s *Session) publish(change func(*Snapshot)) {
	s.mu.Lock()
	change(&s.current)
	snap := s.current
	s.mu.Unlock()

	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}
