package changefeed

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroker(WithBrokerLogger(log.New(io.Discard)))
	go b.Run(ctx)
	t.Cleanup(cancel)
	return b, cancel
}

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func assertNothing(t *testing.T, sub Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func scoreEvent(tournament string) Event {
	return Event{Table: "scores", Op: OpUpdate, Values: map[string]string{"tournament_id": tournament}}
}

func TestBroker_RoutesByFilter(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	t1, err := b.Subscribe(ctx, ScoresFor("t1"))
	require.NoError(t, err)
	t2, err := b.Subscribe(ctx, ScoresFor("t2"))
	require.NoError(t, err)
	all, err := b.Subscribe(ctx, Filter{Table: "scores"})
	require.NoError(t, err)
	assert.Equal(t, 3, b.Subscribers())

	b.Publish(scoreEvent("t1"))

	ev := receive(t, t1)
	assert.Equal(t, OpUpdate, ev.Op)
	assert.Equal(t, "t1", ev.Values["tournament_id"])
	receive(t, all)
	assertNothing(t, t2)
}

func TestBroker_CoalescesPendingEvents(t *testing.T) {
	b, _ := newTestBroker(t)
	sub, err := b.Subscribe(context.Background(), ScoresFor("t1"))
	require.NoError(t, err)

	b.Publish(scoreEvent("t1"))
	b.Publish(scoreEvent("t1"))
	b.Publish(scoreEvent("t1"))

	require.Eventually(t, func() bool { return b.Coalesced() == 2 }, time.Second, 5*time.Millisecond)
	receive(t, sub)
	assertNothing(t, sub)
}

func TestBroker_ReleaseIsSynchronousAndIdempotent(t *testing.T) {
	b, _ := newTestBroker(t)
	sub, err := b.Subscribe(context.Background(), ScoresFor("t1"))
	require.NoError(t, err)

	sub.Release()
	assert.Equal(t, 0, b.Subscribers())
	_, open := <-sub.Events()
	assert.False(t, open)

	sub.Release()
	b.Publish(scoreEvent("t1"))
}

func TestBroker_Unavailable(t *testing.T) {
	b, _ := newTestBroker(t)
	sub, err := b.Subscribe(context.Background(), ScoresFor("t1"))
	require.NoError(t, err)

	b.SetAvailable(false)

	_, open := <-sub.Events()
	assert.False(t, open, "open subscriptions are dropped")
	_, err = b.Subscribe(context.Background(), ScoresFor("t1"))
	assert.ErrorIs(t, err, ErrUnavailable)

	b.SetAvailable(true)
	_, err = b.Subscribe(context.Background(), ScoresFor("t1"))
	assert.NoError(t, err)
}

func TestBroker_BroadcastResyncsTable(t *testing.T) {
	b, _ := newTestBroker(t)
	scores, err := b.Subscribe(context.Background(), ScoresFor("t1"))
	require.NoError(t, err)
	other, err := b.Subscribe(context.Background(), Filter{Table: "achievements"})
	require.NoError(t, err)

	b.Broadcast("scores")

	assert.Equal(t, OpResync, receive(t, scores).Op)
	assertNothing(t, other)
}

func TestBroker_Closed(t *testing.T) {
	b, cancel := newTestBroker(t)
	sub, err := b.Subscribe(context.Background(), ScoresFor("t1"))
	require.NoError(t, err)

	cancel()

	_, open := <-sub.Events()
	assert.False(t, open)
	require.Eventually(t, func() bool {
		_, err := b.Subscribe(context.Background(), ScoresFor("t1"))
		return err == ErrClosed
	}, time.Second, 5*time.Millisecond)

	sub.Release()
	b.Publish(scoreEvent("t1"))
}
