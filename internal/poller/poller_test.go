package poller

import (
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoller(t *testing.T) *Poller {
	t.Helper()
	p, err := New(20*time.Millisecond, log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { p.Shutdown() })
	return p
}

func TestPoller_RunsUntilCancelled(t *testing.T) {
	p := newTestPoller(t)
	var runs atomic.Int32

	cancel, err := p.Schedule("leaderboard:a", func() { runs.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, 1, p.Jobs())

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	cancel()
	assert.Equal(t, 0, p.Jobs())

	time.Sleep(50 * time.Millisecond) // let an already started run finish
	after := runs.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestPoller_RescheduleReplaces(t *testing.T) {
	p := newTestPoller(t)
	var first, second atomic.Int32

	cancelFirst, err := p.Schedule("k", func() { first.Add(1) })
	require.NoError(t, err)
	_, err = p.Schedule("k", func() { second.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, 1, p.Jobs())

	// The stale cancel must not remove the replacement.
	cancelFirst()
	assert.Equal(t, 1, p.Jobs())

	require.Eventually(t, func() bool { return second.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
}
