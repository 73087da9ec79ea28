// Package pgnotify feeds the change broker from Postgres LISTEN/NOTIFY.
//
// The score_changes trigger (migrations/000002) sends a small JSON payload for every
// insert, update and delete on scores. Listener turns each payload into a
// changefeed.Event and keeps the broker's availability in step with the connection.
package pgnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lib/pq"

	"github.com/trentd187/golf-tournaments/internal/changefeed"
)

// Channel is the NOTIFY channel written by the scores trigger.
const Channel = "score_changes"

// Listener relays notifications from Postgres into an Upstream.
type Listener struct {
	dsn          string
	upstream     changefeed.Upstream
	logger       *log.Logger
	minReconnect time.Duration
	maxReconnect time.Duration
	pingInterval time.Duration
}

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the listener logger.
func WithLogger(l *log.Logger) Option {
	return func(n *Listener) { n.logger = l }
}

// WithReconnect sets the reconnect backoff bounds passed to pq.NewListener.
func WithReconnect(minDelay, maxDelay time.Duration) Option {
	return func(n *Listener) { n.minReconnect, n.maxReconnect = minDelay, maxDelay }
}

// New creates a Listener for the database at dsn.
func New(dsn string, upstream changefeed.Upstream, opts ...Option) *Listener {
	l := &Listener{
		dsn:          dsn,
		upstream:     upstream,
		logger:       log.Default(),
		minReconnect: time.Second,
		maxReconnect: time.Minute,
		pingInterval: 90 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run listens until ctx is cancelled. The upstream is marked unavailable until the
// first connection succeeds and whenever the connection is lost.
func (l *Listener) Run(ctx context.Context) error {
	l.upstream.SetAvailable(false)

	pql := pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, l.onEvent)
	defer pql.Close()

	if err := pql.Listen(Channel); err != nil {
		return fmt.Errorf("listen on %s: %w", Channel, err)
	}
	l.logger.Info("listening for score changes", "channel", Channel)

	// A ping is the only way to notice a silently dead connection.
	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pql.Notify:
			l.dispatch(n)
		case <-ticker.C:
			go func() {
				if err := pql.Ping(); err != nil {
					l.logger.Warn("postgres listener ping failed", "err", err)
				}
			}()
		}
	}
}

// onEvent is pq's connection state callback.
func (l *Listener) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		l.logger.Info("postgres listener connected")
		l.upstream.SetAvailable(true)
	case pq.ListenerEventReconnected:
		l.logger.Info("postgres listener reconnected")
		l.upstream.SetAvailable(true)
	case pq.ListenerEventDisconnected:
		l.logger.Warn("postgres listener disconnected", "err", err)
		l.upstream.SetAvailable(false)
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.Warn("postgres listener connection attempt failed", "err", err)
	}
}

// dispatch handles one value from pq's Notify channel. pq sends nil after a reconnect
// because notifications may have been missed while disconnected.
func (l *Listener) dispatch(n *pq.Notification) {
	if n == nil {
		l.upstream.Broadcast("scores")
		return
	}
	ev, err := ParsePayload(n.Extra)
	if err != nil {
		l.logger.Warn("ignoring malformed notification", "channel", n.Channel, "err", err)
		return
	}
	l.upstream.Publish(ev)
}

type payload struct {
	Table        string `json:"table"`
	Op           string `json:"op"`
	TournamentID string `json:"tournament_id"`
}

// ParsePayload decodes the JSON written by notify_score_change().
func ParsePayload(extra string) (changefeed.Event, error) {
	var p payload
	if err := json.Unmarshal([]byte(extra), &p); err != nil {
		return changefeed.Event{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.Table == "" {
		return changefeed.Event{}, errors.New("payload has no table")
	}

	ev := changefeed.Event{Table: p.Table, Op: changefeed.Op(p.Op)}
	if p.TournamentID != "" {
		ev.Values = map[string]string{"tournament_id": p.TournamentID}
	}
	return ev, nil
}
