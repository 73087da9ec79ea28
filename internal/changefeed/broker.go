package changefeed

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Broker is the in-process change feed. It runs in its own goroutine and processes
// subscribe, release, publish and availability requests through channels, so the
// subscriber map is only ever touched by that goroutine.
//
// Each subscriber has an events buffer of one. If a subscriber has not yet read its
// pending event, a new event for it is dropped: the subscriber is going to refetch
// anyway, and one refetch covers both changes.
type Broker struct {
	// subscribers maps a filter key (see Filter.key) to the set of subscriptions on it.
	subscribers map[string]map[*subscription]bool
	available   bool

	publish      chan Event
	register     chan registerRequest
	unregister   chan unregisterRequest
	availability chan bool
	broadcast    chan string

	done     chan struct{}
	doneOnce sync.Once

	active    atomic.Int64
	coalesced atomic.Int64
	logger    *log.Logger
}

type registerRequest struct {
	sub *subscription
	err chan error
}

type unregisterRequest struct {
	sub  *subscription
	done chan struct{}
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBrokerLogger sets the logger used for delivery diagnostics.
func WithBrokerLogger(l *log.Logger) BrokerOption {
	return func(b *Broker) { b.logger = l }
}

// NewBroker creates a Broker that starts out available. Call Run to start it.
// The publish channel has a buffer of 256 so upstreams don't block while the loop
// is briefly busy.
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		subscribers:  make(map[string]map[*subscription]bool),
		available:    true,
		publish:      make(chan Event, 256),
		register:     make(chan registerRequest),
		unregister:   make(chan unregisterRequest),
		availability: make(chan bool),
		broadcast:    make(chan string),
		done:         make(chan struct{}),
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run is the broker's event loop. It blocks until ctx is cancelled, then closes every
// open subscription.
func (b *Broker) Run(ctx context.Context) {
	defer b.doneOnce.Do(func() { close(b.done) })
	for {
		select {
		case <-ctx.Done():
			b.dropAll()
			return

		case req := <-b.register:
			if !b.available {
				req.err <- ErrUnavailable
				continue
			}
			key := req.sub.filter.key()
			if b.subscribers[key] == nil {
				b.subscribers[key] = make(map[*subscription]bool)
			}
			b.subscribers[key][req.sub] = true
			b.active.Add(1)
			req.err <- nil

		case req := <-b.unregister:
			b.remove(req.sub)
			close(req.done)

		case up := <-b.availability:
			if b.available == up {
				continue
			}
			b.available = up
			if !up {
				// Subscribers learn about the outage through their closed channel.
				b.dropAll()
			}

		case table := <-b.broadcast:
			for _, subs := range b.subscribers {
				for sub := range subs {
					if sub.filter.Table == table {
						b.deliver(sub, Event{Table: table, Op: OpResync})
					}
				}
			}

		case ev := <-b.publish:
			for _, key := range ev.keys() {
				for sub := range b.subscribers[key] {
					b.deliver(sub, ev)
				}
			}
		}
	}
}

func (b *Broker) deliver(sub *subscription, ev Event) {
	select {
	case sub.events <- ev:
	default:
		b.coalesced.Add(1)
		b.logger.Debug("changefeed event coalesced", "table", ev.Table, "filter", sub.filter.key())
	}
}

func (b *Broker) remove(sub *subscription) {
	key := sub.filter.key()
	subs, ok := b.subscribers[key]
	if !ok || !subs[sub] {
		return
	}
	delete(subs, sub)
	close(sub.events)
	b.active.Add(-1)
	if len(subs) == 0 {
		delete(b.subscribers, key)
	}
}

func (b *Broker) dropAll() {
	for _, subs := range b.subscribers {
		for sub := range subs {
			b.remove(sub)
		}
	}
}

// Subscribe registers interest in f. It fails with ErrUnavailable while the upstream
// is marked down and with ErrClosed once the broker has stopped.
func (b *Broker) Subscribe(ctx context.Context, f Filter) (Subscription, error) {
	sub := &subscription{
		broker: b,
		filter: f,
		events: make(chan Event, 1),
	}
	req := registerRequest{sub: sub, err: make(chan error, 1)}
	select {
	case b.register <- req:
	case <-b.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := <-req.err; err != nil {
		return nil, err
	}
	return sub, nil
}

// Publish routes ev to every subscriber whose filter matches. It is a no-op once the
// broker has stopped.
func (b *Broker) Publish(ev Event) {
	select {
	case b.publish <- ev:
	case <-b.done:
	}
}

// Broadcast sends an OpResync event to every subscriber of table.
func (b *Broker) Broadcast(table string) {
	select {
	case b.broadcast <- table:
	case <-b.done:
	}
}

// SetAvailable marks the upstream as up or down. Going down closes every open
// subscription and makes Subscribe fail until the upstream is back.
func (b *Broker) SetAvailable(up bool) {
	select {
	case b.availability <- up:
	case <-b.done:
	}
}

// Subscribers reports how many subscriptions are currently open.
func (b *Broker) Subscribers() int { return int(b.active.Load()) }

// Coalesced reports how many events were dropped because the subscriber already had
// one pending.
func (b *Broker) Coalesced() int64 { return b.coalesced.Load() }

type subscription struct {
	broker  *Broker
	filter  Filter
	events  chan Event
	release sync.Once
}

func (s *subscription) Events() <-chan Event { return s.events }

func (s *subscription) Release() {
	s.release.Do(func() {
		req := unregisterRequest{sub: s, done: make(chan struct{})}
		select {
		case s.broker.unregister <- req:
			<-req.done
		case <-s.broker.done:
			// The loop closed every subscription on its way out.
		}
	})
}
