// Package liveclient is a Go client for the live update channel. It dials
// the websocket endpoint, authenticates in-band, and delivers reaction and
// notification events to callbacks. When the connection drops it reconnects
// with backoff, and when the server stays unreachable it degrades to
// polling the REST API so consumers keep seeing fresh reaction state.
package liveclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second

	// Reconnect schedule: a handful of attempts with a growing delay,
	// then give up on the socket and fall back to polling.
	maxReconnectAttempts = 5
	reconnectBaseDelay   = 5 * time.Second
	reconnectStep        = time.Second
	reconnectMaxDelay    = 30 * time.Second

	defaultPollInterval = 15 * time.Second
)

// ErrAuthRejected is returned when the server refuses the auth frame.
// Reconnecting will not help; the caller needs a fresh token.
var ErrAuthRejected = errors.New("liveclient: authentication rejected")

// ReactionSnapshot is one entry of a post's full reaction state.
type ReactionSnapshot struct {
	UserID    uint      `json:"userId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReactionEvent is the server's full-state push for a single post. The
// reaction list always replaces whatever the consumer holds for that post.
type ReactionEvent struct {
	PostID    uint               `json:"postId"`
	Reactions []ReactionSnapshot `json:"reactions"`
}

// NotificationEvent carries a freshly created notification. The payload is
// left raw because consumers typically hand it straight to a UI layer.
type NotificationEvent struct {
	Notification json.RawMessage `json:"notification"`
}

type envelope struct {
	Type         string             `json:"type"`
	Error        string             `json:"error,omitempty"`
	Token        string             `json:"token,omitempty"`
	PostID       uint               `json:"postId,omitempty"`
	Reactions    []ReactionSnapshot `json:"reactions,omitempty"`
	Notification json.RawMessage    `json:"notification,omitempty"`
}

// Config configures a Client.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8480/api/ws.
	URL string
	// BaseURL is the REST API root used for poll fallback and cache
	// refetches, e.g. http://localhost:8480.
	BaseURL string
	// Token is the bearer token used for the auth frame and REST calls.
	Token string

	// OnReaction receives every reaction snapshot push.
	OnReaction func(ReactionEvent)
	// OnNotification receives live notification pushes.
	OnNotification func(NotificationEvent)
	// OnDegraded is called once when the client gives up on the socket
	// and switches to polling.
	OnDegraded func()

	// PollInterval controls the fallback polling cadence.
	PollInterval time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client maintains a live connection to the server.
type Client struct {
	cfg    Config
	cache  *PostCache
	logger *slog.Logger
	http   *http.Client

	// wait computes the pause before a reconnect attempt. Stubbed in tests.
	wait func(attempt int) time.Duration
}

// New creates a Client. Run must be called to start it.
func New(cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		logger: cfg.Logger,
		http:   cfg.HTTPClient,
		wait:   reconnectDelay,
	}
	c.cache = NewPostCache(c)
	return c
}

// Cache returns the reaction cache fed by this client.
func (c *Client) Cache() *PostCache {
	return c.cache
}

// Run connects and processes events until ctx is cancelled. It reconnects
// on failure; after maxReconnectAttempts consecutive failures it switches
// to polling mode for the rest of its life. The returned error is ctx.Err()
// on cancellation or ErrAuthRejected when the token is refused.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		connected, err := c.connectAndRead(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrAuthRejected):
			return err
		}

		if connected {
			// The handshake completed, so whatever outage preceded this
			// session is over. Only consecutive failures count against the
			// reconnect budget.
			attempt = 0
		}

		attempt++
		if attempt > maxReconnectAttempts {
			c.logger.Warn("live channel unavailable, degrading to polling",
				"attempts", attempt-1)
			if c.cfg.OnDegraded != nil {
				c.cfg.OnDegraded()
			}
			return c.pollLoop(ctx)
		}

		delay := c.wait(attempt)
		c.logger.Info("live channel lost, reconnecting",
			"attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// reconnectDelay computes the wait before the given attempt (1-based).
func reconnectDelay(attempt int) time.Duration {
	delay := reconnectBaseDelay + time.Duration(attempt-1)*reconnectStep
	if delay > reconnectMaxDelay {
		delay = reconnectMaxDelay
	}
	return delay
}

// connectAndRead performs one full connection lifetime: dial, auth
// handshake, then read events until the socket dies or ctx is cancelled.
// The returned bool reports whether the handshake completed, so Run can
// tell a failed session apart from a healthy one that later dropped.
func (c *Client) connectAndRead(ctx context.Context) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	if err := c.handshake(conn); err != nil {
		return false, err
	}

	// Successfully authenticated connection resets the cache: anything we
	// held may be stale after the gap.
	c.cache.RefetchAll(ctx)

	// Close the socket when ctx is cancelled so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		c.dispatch(ctx, data)
	}
}

// handshake sends the auth frame and waits for the server's verdict. The
// first frame back is either "connected" or "error".
func (c *Client) handshake(conn *websocket.Conn) error {
	frame, _ := json.Marshal(envelope{Type: "auth", Token: c.cfg.Token})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send auth frame: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	_, data, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("await auth reply: %w", err)
	}

	var reply envelope
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("decode auth reply: %w", err)
	}
	switch reply.Type {
	case "connected":
		return nil
	case "error":
		return fmt.Errorf("%w: %s", ErrAuthRejected, reply.Error)
	default:
		return fmt.Errorf("unexpected first frame %q", reply.Type)
	}
}

func (c *Client) dispatch(ctx context.Context, data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("discarding malformed live event", "error", err)
		return
	}

	switch msg.Type {
	case "reaction":
		event := ReactionEvent{PostID: msg.PostID, Reactions: msg.Reactions}
		c.cache.ApplySnapshot(event.PostID, event.Reactions)
		if c.cfg.OnReaction != nil {
			c.cfg.OnReaction(event)
		}
	case "notification":
		if c.cfg.OnNotification != nil {
			c.cfg.OnNotification(NotificationEvent{Notification: msg.Notification})
		}
	case "messages_dropped":
		// The server shed pushes under backpressure. Snapshots we never
		// saw are unrecoverable from the stream, so refetch everything
		// we track.
		c.logger.Warn("server dropped live events, refetching tracked posts")
		c.cache.RefetchAll(ctx)
	default:
		// Unknown event types are ignored so the server can grow its
		// vocabulary without breaking old clients.
	}
}

// pollLoop fetches reaction state for tracked posts over REST until ctx is
// cancelled. Entered only after the socket is given up on.
func (c *Client) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.cache.RefetchAll(ctx)
		}
	}
}

// fetchReactions GETs the authoritative reaction list for one post.
func (c *Client) fetchReactions(ctx context.Context, postID uint) ([]ReactionSnapshot, error) {
	url := fmt.Sprintf("%s/api/posts/%d/reactions", c.cfg.BaseURL, postID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch reactions for post %d: status %d", postID, resp.StatusCode)
	}

	// REST responses use snake_case field names.
	var body struct {
		Reactions []struct {
			UserID    uint      `json:"user_id"`
			Type      string    `json:"type"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"reactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	reactions := make([]ReactionSnapshot, 0, len(body.Reactions))
	for _, r := range body.Reactions {
		reactions = append(reactions, ReactionSnapshot{
			UserID:    r.UserID,
			Type:      r.Type,
			CreatedAt: r.CreatedAt,
		})
	}
	return reactions, nil
}
