package handlers

// leaderboard.go serves tournament standings, either once as JSON or as a live
// Server-Sent Events stream.
//
// The stream runs one leaderboard.Session per connection. The session subscribes to the
// tournament's score changes, refetches on every change and publishes a Snapshot, which
// is written to the client as a "standings" event. When the client goes away the next
// write fails and the session is torn down, releasing its subscription.

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-tournaments/internal/changefeed"
	"github.com/trentd187/golf-tournaments/internal/leaderboard"
	"github.com/trentd187/golf-tournaments/internal/metrics"
	"github.com/trentd187/golf-tournaments/internal/store"
)

// LeaderboardResponse is the one-shot standings body.
type LeaderboardResponse struct {
	TournamentID   string                       `json:"tournament_id"`
	TournamentName string                       `json:"tournament_name"`
	Standings      []leaderboard.StandingsEntry `json:"standings"`
	Empty          bool                         `json:"empty"`
}

// GetLeaderboard returns a handler for GET /api/v1/tournaments/:tournament/leaderboard.
func GetLeaderboard(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		t, err := st.GetTournament(ctx, c.Params("tournament"))
		if err != nil {
			return storeError(err, "failed to fetch tournament")
		}
		rows, err := st.FetchScores(ctx, t.ID.String())
		if err != nil {
			return storeError(err, "failed to fetch scores")
		}
		standings := leaderboard.ComputeStandings(rows)
		return c.JSON(LeaderboardResponse{
			TournamentID:   t.ID.String(),
			TournamentName: t.Name,
			Standings:      standings,
			Empty:          len(standings) == 0,
		})
	}
}

// Live holds what a streaming leaderboard needs besides the store.
type Live struct {
	Feed      changefeed.Feed
	Refresher leaderboard.Refresher // nil disables polling while the feed is down
	Metrics   metrics.Metrics
	Logger    *log.Logger
	Retries   uint64
	RetryBase time.Duration
	// Heartbeat is the interval of keep-alive comments. It is also how quickly a
	// vanished client is noticed.
	Heartbeat time.Duration
}

// StreamLeaderboard returns a handler for GET /api/v1/tournaments/:tournament/leaderboard/stream.
func StreamLeaderboard(st *store.Store, live Live) fiber.Handler {
	if live.Heartbeat <= 0 {
		live.Heartbeat = 15 * time.Second
	}
	if live.Metrics == nil {
		live.Metrics = metrics.Noop{}
	}
	if live.Logger == nil {
		live.Logger = log.Default()
	}

	return func(c *fiber.Ctx) error {
		t, err := st.GetTournament(c.UserContext(), c.Params("tournament"))
		if err != nil {
			return storeError(err, "failed to fetch tournament")
		}

		opts := []leaderboard.Option{
			leaderboard.WithLogger(live.Logger),
			leaderboard.WithMetrics(live.Metrics),
			leaderboard.WithRetry(live.Retries, live.RetryBase),
		}
		if live.Refresher != nil {
			opts = append(opts, leaderboard.WithRefresher(live.Refresher))
		}
		session := leaderboard.NewSession(t.ID.String(), st, live.Feed, opts...)

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		// The fiber.Ctx is recycled once the handler returns, so everything the writer
		// needs is captured here.
		serverDone := c.Context().Done()
		logger := live.Logger.With("tournament", t.ID.String())

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx, cancel := context.WithCancel(context.Background())
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				if err := session.Run(ctx); err != nil {
					logger.Error("leaderboard session failed", "err", err)
				}
			}()
			defer func() {
				cancel()
				<-finished
				logger.Debug("leaderboard stream closed")
			}()

			ticker := time.NewTicker(live.Heartbeat)
			defer ticker.Stop()

			// Initial keepalive (comment line) so proxies start forwarding at once.
			w.WriteString(": connected\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case snap := <-session.Updates():
					if err := writeEvent(w, "standings", snap); err != nil {
						return
					}
				case <-ticker.C:
					w.WriteString(": ping\n\n")
					if err := w.Flush(); err != nil {
						// Client disconnected
						return
					}
				case <-serverDone:
					return
				}
			}
		})
		return nil
	}
}

// writeEvent writes one SSE event and flushes it. A flush error means the client is gone.
func writeEvent(w *bufio.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return w.Flush()
}
