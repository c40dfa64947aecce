package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// wsClient is a single WebSocket connection to an exchange feed. The caller
// dials with Connect, completes the login round-trip with Authenticate, and
// only then does the read loop start delivering messages.
type wsClient struct {
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn

	// Output channels
	messages chan []byte
	errors   chan error
	done     chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu        sync.RWMutex
	connected bool
	closed    bool
}

func newWSClient(cfg Config, logger *slog.Logger) *wsClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &wsClient{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan []byte, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection. The read loop is not started
// until Authenticate succeeds, so the login reply can be read synchronously.
func (c *wsClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.logger.Debug("websocket connected", "url", c.cfg.URL)
	return nil
}

// Authenticate performs the login round-trip: one outbound login frame, one
// inbound reply. Any reply other than {"event":"login","status":200} fails
// the whole connection attempt. On success the read loop starts.
func (c *wsClient) Authenticate(ctx context.Context) error {
	frame := loginFrame{Event: "login", Data: loginData{APIKey: c.cfg.APIKey}}
	if err := c.SendJSON(frame); err != nil {
		return fmt.Errorf("send login: %w", err)
	}

	deadline := time.Now().Add(c.cfg.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetReadDeadline(deadline)

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read login reply: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var reply loginReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("decode login reply: %w", err)
	}
	if reply.Event != "login" || reply.Status != 200 {
		return fmt.Errorf("%w: event=%q status=%d", ErrAuthFailed, reply.Event, reply.Status)
	}

	go c.readLoop()

	c.logger.Debug("authenticated", "url", c.cfg.URL)
	return nil
}

// Close gracefully closes the connection. Safe to call more than once.
func (c *wsClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

// SendJSON marshals and writes one frame.
func (c *wsClient) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return c.Send(data)
}

// Send writes raw bytes to the connection.
func (c *wsClient) Send(data []byte) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Messages returns the inbound message channel.
func (c *wsClient) Messages() <-chan []byte {
	return c.messages
}

// Errors returns the connection error channel.
func (c *wsClient) Errors() <-chan error {
	return c.errors
}

// readLoop reads messages until the connection fails or Close is called.
func (c *wsClient) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			// Ignore errors after Close() was called.
			select {
			case <-c.done:
			default:
				select {
				case c.errors <- err:
				default:
				}
			}
			return
		}

		select {
		case c.messages <- data:
		case <-c.done:
			return
		default:
			c.logger.Warn("message buffer full, dropping message")
		}
	}
}
