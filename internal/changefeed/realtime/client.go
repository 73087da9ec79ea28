// Package realtime feeds the change broker from the hosted realtime service.
//
// The service speaks the Phoenix channel protocol over a websocket. Every message is a
// JSON envelope {topic, event, payload, ref}. The client joins one topic per table with a
// postgres_changes config, answers nothing but sends a heartbeat on the "phoenix" topic
// every 30 seconds, and turns each postgres_changes message into a changefeed.Event.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/trentd187/golf-tournaments/internal/changefeed"
)

const (
	writeWait         = 10 * time.Second
	heartbeatInterval = 30 * time.Second
)

// routedColumns are copied from a changed row into Event.Values so the broker can
// match filters on them.
var routedColumns = []string{"tournament_id"}

// message is the Phoenix channel envelope.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

type joinPayload struct {
	Config      joinConfig `json:"config"`
	AccessToken string     `json:"access_token,omitempty"`
}

type joinConfig struct {
	PostgresChanges []postgresChangesFilter `json:"postgres_changes"`
}

type postgresChangesFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Type      string         `json:"type"`
		Table     string         `json:"table"`
		Record    map[string]any `json:"record"`
		OldRecord map[string]any `json:"old_record"`
	} `json:"data"`
}

// Client keeps a websocket to the realtime service open and publishes row changes.
type Client struct {
	endpoint  string
	apiKey    string
	table     string
	upstream  changefeed.Upstream
	logger    *log.Logger
	dialer    *websocket.Dialer
	heartbeat time.Duration
	backoff   func() retry.Backoff

	ref atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHeartbeat overrides the heartbeat interval.
func WithHeartbeat(d time.Duration) Option {
	return func(c *Client) { c.heartbeat = d }
}

// WithBackoff sets the reconnect backoff. A fresh backoff is created after every
// successful join.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.backoff = func() retry.Backoff {
			return retry.WithCappedDuration(maxDelay, retry.NewExponential(base))
		}
	}
}

// New creates a client for the websocket endpoint (for example
// wss://<project>.supabase.co/realtime/v1/websocket) watching the scores table.
func New(endpoint, apiKey string, upstream changefeed.Upstream, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint,
		apiKey:    apiKey,
		table:     "scores",
		upstream:  upstream,
		logger:    log.Default(),
		dialer:    websocket.DefaultDialer,
		heartbeat: heartbeatInterval,
	}
	WithBackoff(500*time.Millisecond, 30*time.Second)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run connects and reconnects until ctx is cancelled. The upstream is only marked
// available while a join is acknowledged.
func (c *Client) Run(ctx context.Context) error {
	c.upstream.SetAvailable(false)
	backoff := c.backoff()
	for {
		joined, err := c.serve(ctx)
		c.upstream.SetAvailable(false)
		if ctx.Err() != nil {
			return nil
		}
		if joined {
			backoff = c.backoff()
		}
		delay, _ := backoff.Next()
		c.logger.Warn("realtime connection lost, reconnecting", "err", err, "delay", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (c *Client) topic() string { return "realtime:public:" + c.table }

func (c *Client) url() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// serve runs one connection. joined reports whether the join was acknowledged before
// the connection ended.
func (c *Client) serve(ctx context.Context) (joined bool, err error) {
	endpoint, err := c.url()
	if err != nil {
		return false, err
	}
	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("dial realtime: %w", err)
	}
	defer conn.Close()
	// Unblocks ReadJSON when the caller gives up.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var writeMu sync.Mutex
	send := func(m any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(m)
	}

	joinRef := c.nextRef()
	join, err := json.Marshal(joinPayload{
		Config:      joinConfig{PostgresChanges: []postgresChangesFilter{{Event: "*", Schema: "public", Table: c.table}}},
		AccessToken: c.apiKey,
	})
	if err != nil {
		return false, err
	}
	if err := send(message{Topic: c.topic(), Event: "phx_join", Payload: join, Ref: &joinRef}); err != nil {
		return false, fmt.Errorf("send join: %w", err)
	}

	hbDone := make(chan struct{})
	defer close(hbDone)
	go func() {
		ticker := time.NewTicker(c.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-hbDone:
				return
			case <-ticker.C:
				ref := c.nextRef()
				if err := send(message{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`), Ref: &ref}); err != nil {
					c.logger.Warn("realtime heartbeat failed", "err", err)
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return joined, fmt.Errorf("read realtime message: %w", err)
		}

		switch msg.Event {
		case "phx_reply":
			if msg.Ref == nil || *msg.Ref != joinRef {
				continue // heartbeat acks
			}
			var reply replyPayload
			if err := json.Unmarshal(msg.Payload, &reply); err != nil {
				return joined, fmt.Errorf("decode join reply: %w", err)
			}
			if reply.Status != "ok" {
				return joined, fmt.Errorf("join %s rejected: %s", c.topic(), reply.Response)
			}
			joined = true
			c.logger.Info("realtime channel joined", "topic", c.topic())
			c.upstream.SetAvailable(true)

		case "postgres_changes":
			ev, err := ParseChange(msg.Payload)
			if err != nil {
				c.logger.Warn("ignoring malformed realtime change", "err", err)
				continue
			}
			c.upstream.Publish(ev)

		case "phx_error", "phx_close":
			return joined, errors.New("realtime channel closed by server: " + msg.Event)
		}
	}
}

func (c *Client) nextRef() string {
	return strconv.FormatInt(c.ref.Add(1), 10)
}

// ParseChange turns a postgres_changes payload into an Event. For deletes the routed
// columns come from old_record.
func ParseChange(raw json.RawMessage) (changefeed.Event, error) {
	var p changePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return changefeed.Event{}, fmt.Errorf("decode change: %w", err)
	}
	if p.Data.Table == "" {
		return changefeed.Event{}, errors.New("change has no table")
	}

	ev := changefeed.Event{Table: p.Data.Table, Op: changefeed.Op(p.Data.Type)}
	row := p.Data.Record
	if ev.Op == changefeed.OpDelete || len(row) == 0 {
		row = p.Data.OldRecord
	}
	for _, col := range routedColumns {
		if v, ok := row[col].(string); ok && v != "" {
			if ev.Values == nil {
				ev.Values = make(map[string]string)
			}
			ev.Values[col] = v
		}
	}
	return ev, nil
}
