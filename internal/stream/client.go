// Package stream owns the upstream event-stream connection: dialing,
// detecting closure, and re-establishing after a fixed delay, forever.
// Reconnection is a steady-state assumption here, not an exceptional path.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"floorsight/dashboard/internal/telemetry"
)

// Status is the connection lifecycle state.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn is the subset of a websocket connection the client drives.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a connection to the upstream stream endpoint.
type Dialer func(url string) (Conn, error)

// Transport is the narrow capability handed to collaborators that need to
// write to the live stream or observe connectivity. It replaces any ambient
// global socket reference: collaborators receive it by injection.
type Transport interface {
	Send(v any) error
	Connected() bool
}

// ErrNotConnected is returned by Send while no socket is live.
var ErrNotConnected = errors.New("stream: not connected")

const (
	metricStreamConnects     = "stream_connects"
	metricStreamDialFailures = "stream_dial_failures"
	metricStreamDisconnects  = "stream_disconnects"
	metricStreamFrames       = "stream_frames_received"
)

// Config carries the client knobs.
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	FrameBuffer    int
	Dial           Dialer
	Logger         telemetry.Logger
	Metrics        telemetry.Metrics
}

// Client maintains one long-lived connection. Connect is idempotent; closure
// schedules exactly one reconnection attempt after the fixed delay, with no
// backoff growth and no attempt limit. Inbound frames are delivered on a
// buffered channel in arrival order.
type Client struct {
	url     string
	delay   time.Duration
	dial    Dialer
	logger  telemetry.Logger
	metrics telemetry.Metrics

	frames chan []byte
	status atomic.Int32

	mu      sync.Mutex
	conn    Conn
	pending *time.Timer
	closed  bool
}

// NewClient builds a client; it does not dial until Connect is called.
func NewClient(cfg Config) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if cfg.FrameBuffer <= 0 {
		cfg.FrameBuffer = 256
	}
	if cfg.Dial == nil {
		cfg.Dial = DialWebsocket
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	return &Client{
		url:     cfg.URL,
		delay:   cfg.ReconnectDelay,
		dial:    cfg.Dial,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		frames:  make(chan []byte, cfg.FrameBuffer),
	}
}

// Connect starts dialing unless a socket is already open or opening. Calling
// it supersedes any pending reconnect timer.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed || c.conn != nil || Status(c.status.Load()) == StatusConnecting {
		c.mu.Unlock()
		return
	}
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.status.Store(int32(StatusConnecting))
	c.mu.Unlock()

	go c.establish()
}

func (c *Client) establish() {
	conn, err := c.dial(c.url)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.status.Store(int32(StatusDisconnected))
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		c.metrics.Add(metricStreamDialFailures, 1)
		c.logger.Printf("stream dial %s failed: %v", c.url, err)
		return
	}
	c.conn = conn
	c.status.Store(int32(StatusConnected))
	c.mu.Unlock()

	c.metrics.Add(metricStreamConnects, 1)
	c.logger.Printf("stream connected to %s", c.url)
	go c.readPump(conn)
}

func (c *Client) readPump(conn Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}
		c.metrics.Add(metricStreamFrames, 1)
		c.frames <- frame
	}
	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.status.Store(int32(StatusDisconnected))
		if !c.closed {
			c.scheduleReconnectLocked()
		}
	}
	closed := c.closed
	c.mu.Unlock()

	c.metrics.Add(metricStreamDisconnects, 1)
	if !closed {
		c.logger.Printf("stream disconnected, reconnecting in %s", c.delay)
	}
}

// scheduleReconnectLocked arms the single reconnect timer. At most one timer
// is ever pending; a second closure while one is armed is a no-op.
func (c *Client) scheduleReconnectLocked() {
	if c.pending != nil || c.closed {
		return
	}
	c.pending = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		c.Connect()
	})
}

// Frames returns the inbound frame channel. Frames arrive in the order the
// transport delivered them.
func (c *Client) Frames() <-chan []byte {
	return c.frames
}

// Status reports the current lifecycle state.
func (c *Client) Status() Status {
	return Status(c.status.Load())
}

// Connected satisfies Transport.
func (c *Client) Connected() bool {
	return c.Status() == StatusConnected
}

// Send marshals v and writes it as a text frame on the live socket.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stream send: %w", err)
	}
	if err := conn.WriteMessage(textMessage, data); err != nil {
		return fmt.Errorf("stream send: %w", err)
	}
	return nil
}

// Close tears the client down permanently: no further reconnects fire. The
// engine has no shutdown API of its own; this is the page-teardown analogue.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	conn := c.conn
	c.conn = nil
	c.status.Store(int32(StatusDisconnected))
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
