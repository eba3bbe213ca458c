// Package stream owns the long-lived WebSocket connections to the live
// position feed and the subscription channel.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/vesselwatch/tracker/pkg/streaming"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

// String implements fmt.Stringer for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

const writeWait = 10 * time.Second

// Handler receives every recognized envelope read from the stream.
type Handler func(env streaming.Envelope)

// Config describes one stream client.
type Config struct {
	Name        string // identifies the client in logs
	URL         string
	DialTimeout time.Duration
	Retry       RetryPolicy

	// Subscribe is sent after every successful (re)connect. Cached here so
	// reconnects replay it without the caller's involvement.
	Subscribe []byte
}

// Client manages a single WebSocket connection with a state-guarded
// connect, a read loop, and policy-driven reconnects.
type Client struct {
	mu    sync.Mutex
	conn  *ws.Conn
	state State
	done  chan struct{}

	// True while a reconnect loop is running; guarantees a single
	// outstanding reconnect timer per client.
	reconnecting bool

	cfg     Config
	handler Handler
	logger  *slog.Logger

	// wantRetry is consulted before every reconnect attempt. The live feed
	// uses it to stop retrying once the consumer leaves all-vessels mode; a
	// nil func always retries.
	wantRetry func() bool

	// onConnect fires after every successful (re)connect, before the read
	// loop starts. Used to reset the map refresh burst.
	onConnect func()

	// onTerminalFailure fires when a bounded policy exhausts its attempts.
	onTerminalFailure func(err error)

	// onTransportError fires on connection loss or dial failure so the
	// caller can surface a single user-visible notification.
	onTransportError func(err error)
}

// Option configures optional client callbacks.
type Option func(*Client)

// WithRetryGate installs a predicate consulted before each reconnect.
func WithRetryGate(f func() bool) Option {
	return func(c *Client) { c.wantRetry = f }
}

// WithOnConnect installs a callback fired after every (re)connect.
func WithOnConnect(f func()) Option {
	return func(c *Client) { c.onConnect = f }
}

// WithOnTerminalFailure installs a callback for exhausted bounded retries.
func WithOnTerminalFailure(f func(err error)) Option {
	return func(c *Client) { c.onTerminalFailure = f }
}

// WithOnTransportError installs a callback for non-fatal transport errors.
func WithOnTransportError(f func(err error)) Option {
	return func(c *Client) { c.onTransportError = f }
}

// NewClient creates a client; no connection is opened until Connect.
func NewClient(cfg Config, handler Handler, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("stream", cfg.Name),
		done:    make(chan struct{}),
		state:   StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the connection if the client is disconnected. It is
// idempotent: a client that is already connecting or connected never opens
// a second concurrent connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("Connect skipped", "state", state)
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dialOnce()
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		c.reportTransportError(err)
		go c.reconnect()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	c.logger.Info("Stream connected", "url", c.cfg.URL)
	if c.onConnect != nil {
		c.onConnect()
	}

	go c.readLoop()
	return nil
}

// dialOnce performs a single dial bounded by the configured handshake
// timeout, then sends the cached subscription message.
func (c *Client) dialOnce() (*ws.Conn, error) {
	dialer := ws.Dialer{HandshakeTimeout: c.cfg.DialTimeout}

	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("stream dial failed: %w", err)
	}

	if c.cfg.Subscribe != nil {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("setting subscribe deadline: %w", err)
		}
		if err := conn.WriteMessage(ws.TextMessage, c.cfg.Subscribe); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("sending subscription: %w", err)
		}
	}

	return conn, nil
}

// SetSubscription replaces the cached subscribe message and, when the client
// is connected, replays it immediately so the server applies the new filter
// without waiting for a reconnect. A disconnected client just caches the
// message; the next (re)connect sends it.
func (c *Client) SetSubscription(msg []byte) error {
	c.mu.Lock()
	c.cfg.Subscribe = msg
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || conn == nil {
		return nil
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("setting subscribe deadline: %w", err)
	}
	if err := conn.WriteMessage(ws.TextMessage, msg); err != nil {
		return fmt.Errorf("sending subscription: %w", err)
	}
	return nil
}

// readLoop reads envelopes until the connection drops or the client closes.
// Malformed payloads are logged and dropped; the connection stays open.
func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("Stream read error", "error", err)
			c.reportTransportError(err)
			go c.reconnect()
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.logger.Warn("Dropping malformed stream message", "error", err)
			continue
		}

		switch env.Type {
		case streaming.TypeVesselUpdate, streaming.TypeStaticData:
			c.handler(env)
		default:
			c.logger.Debug("Ignoring unrecognized message type", "type", env.Type)
		}
	}
}

// reconnect re-establishes the connection according to the retry policy.
// Only one reconnect loop runs per client; the delay between attempts is
// fixed, and an exhausted bounded policy reports a terminal failure.
func (c *Client) reconnect() {
	c.mu.Lock()
	if c.state == StateClosing || c.reconnecting {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	for attempt := 1; ; attempt++ {
		if c.cfg.Retry.Exhausted(attempt) {
			c.logger.Error("Stream reconnect gave up", "maxAttempts", c.cfg.Retry.MaxAttempts)
			if c.onTerminalFailure != nil {
				c.onTerminalFailure(ErrRetriesExhausted)
			}
			return
		}

		select {
		case <-c.done:
			return
		case <-time.After(c.cfg.Retry.Delay):
		}

		if c.wantRetry != nil && !c.wantRetry() {
			c.logger.Info("Stream reconnect stopped, consumer no longer wants the feed")
			return
		}

		c.logger.Info("Reconnecting stream", "attempt", attempt)

		c.mu.Lock()
		c.state = StateConnecting
		c.mu.Unlock()

		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			c.mu.Lock()
			c.state = StateDisconnected
			c.mu.Unlock()
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.state = StateConnected
		c.mu.Unlock()

		c.logger.Info("Stream reconnected", "attempt", attempt)
		if c.onConnect != nil {
			c.onConnect()
		}

		go c.readLoop()
		return
	}
}

// Close sends a close frame and shuts the client down permanently.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosing {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		)
		return conn.Close()
	}
	return nil
}

func (c *Client) reportTransportError(err error) {
	if c.onTransportError != nil {
		c.onTransportError(err)
	}
}
