// Package changefeed delivers row-change notifications to interested subscribers.
//
// A subscriber asks for changes on one table, optionally narrowed to rows where one
// column has a given value (for example scores where tournament_id = X). The in-process
// Broker fans events out to matching subscribers. Where the events come from is up to
// the caller: the API's own writes, the pgnotify listener (Postgres LISTEN/NOTIFY) or the
// realtime websocket client all Publish into the same Broker.
package changefeed

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned by Subscribe while the upstream source is down.
	ErrUnavailable = errors.New("changefeed: upstream unavailable")
	// ErrClosed is returned by Subscribe after the broker has shut down.
	ErrClosed = errors.New("changefeed: closed")
)

// Op is the kind of change an Event reports.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
	// OpResync means "something may have changed, refetch everything". It is sent after
	// an upstream reconnect, when individual notifications may have been lost.
	OpResync Op = "RESYNC"
)

// Filter selects which changes a subscriber receives.
// An empty Column matches every row of Table.
type Filter struct {
	Table  string
	Column string
	Value  string
}

// ScoresFor is the filter used by leaderboard sessions: every change to the scores of
// one tournament.
func ScoresFor(tournamentID string) Filter {
	return Filter{Table: "scores", Column: "tournament_id", Value: tournamentID}
}

func (f Filter) key() string {
	if f.Column == "" {
		return f.Table
	}
	return f.Table + ":" + f.Column + "=" + f.Value
}

// Event is one change notification. Values holds the filterable columns of the changed
// row (for scores: tournament_id).
type Event struct {
	Table  string
	Op     Op
	Values map[string]string
}

// keys lists every filter key this event should be routed to.
func (e Event) keys() []string {
	keys := make([]string, 0, len(e.Values)+1)
	keys = append(keys, e.Table)
	for col, val := range e.Values {
		keys = append(keys, Filter{Table: e.Table, Column: col, Value: val}.key())
	}
	return keys
}

// Subscription is an open interest in a Filter.
type Subscription interface {
	// Events yields change notifications. Bursts may be coalesced into one event.
	// The channel is closed when the feed drops the subscription (upstream lost or
	// broker shut down) and after Release.
	Events() <-chan Event
	// Release stops delivery. It returns only once the feed will send no more events
	// and is safe to call more than once.
	Release()
}

// Feed opens subscriptions.
type Feed interface {
	Subscribe(ctx context.Context, f Filter) (Subscription, error)
}

// Upstream is the side of the Broker that change sources drive.
type Upstream interface {
	Publish(ev Event)
	Broadcast(table string)
	SetAvailable(up bool)
}

var (
	_ Feed     = (*Broker)(nil)
	_ Upstream = (*Broker)(nil)
)
