package hub

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ewopara/market-screener/internal/model"
	"github.com/ewopara/market-screener/internal/subscription"
)

// Config carries the hub's tunables.
type Config struct {
	// SendBuffer is the per-session outbound queue depth.
	SendBuffer int `yaml:"send_buffer"`
	// WriteTimeout bounds a single websocket write.
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// PongWait is how long a session may go without answering a ping.
	PongWait time.Duration `yaml:"pong_wait"`
	// PingPeriod is the keepalive interval; must be under PongWait.
	PingPeriod time.Duration `yaml:"ping_period"`
	// ReadLimit caps inbound message size in bytes.
	ReadLimit int64 `yaml:"read_limit"`
}

// DefaultConfig returns the hub defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:   256,
		WriteTimeout: 10 * time.Second,
		PongWait:     60 * time.Second,
		PingPeriod:   50 * time.Second,
		ReadLimit:    1 << 16,
	}
}

// Hub owns all downstream client sessions and their registry entries.
type Hub struct {
	cfg      Config
	registry subscription.Registry
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// New creates a hub backed by the given registry.
func New(cfg Config, registry subscription.Registry, logger *slog.Logger) *Hub {
	def := DefaultConfig()
	if cfg.SendBuffer == 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PongWait == 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingPeriod == 0 {
		cfg.PingPeriod = def.PingPeriod
	}
	if cfg.ReadLimit == 0 {
		cfg.ReadLimit = def.ReadLimit
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[uuid.UUID]*session),
	}
}

// Accept upgrades an HTTP request to a websocket session and registers it.
// The session exists in the registry before the greeting is sent, so a
// subscribe arriving immediately after cannot race an unknown session.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := newSession(conn, h.cfg.SendBuffer)

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	h.registry.Register(s.id)

	go s.writePump(h)
	h.push(s, message{Event: EventStatus, Payload: "Connected to Market Screener WebSocket"})
	h.logger.Info("client connected", "session_id", s.id)

	go s.readPump(h)
}

// Disconnect removes a session from the hub and the registry and closes its
// connection. Calling it for an unknown or already-removed session is a
// no-op, so the read pump, write pump, and shutdown can all invoke it.
func (h *Hub) Disconnect(id uuid.UUID) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	h.registry.Unregister(id)
	s.close()
	h.logger.Info("client disconnected", "session_id", id)
}

// PushTick delivers a matched tick to one session as an update event. It is
// the sink feed listeners publish through and never blocks.
func (h *Hub) PushTick(id uuid.UUID, tick model.NormalizedTick) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return
	}

	h.push(s, message{Event: EventUpdate, Payload: tick})
}

// Sessions returns the number of connected clients.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown disconnects every session.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	ids := make([]uuid.UUID, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Disconnect(id)
	}
}

// handleInbound dispatches one client message. A rejected message leaves
// the session's registry entry untouched.
func (h *Hub) handleInbound(s *session, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.pushError(s, fmt.Sprintf("Invalid payload: %v", err))
		return
	}

	switch env.Event {
	case EventSubscribe, EventUpdateSubscription:
		h.handleSubscribe(s, env)
	case EventUnsubscribe:
		h.registry.Clear(s.id)
		h.push(s, message{Event: EventUnsubscribed, Payload: struct{}{}})
	default:
		h.pushError(s, fmt.Sprintf("Unknown event: %s", env.Event))
	}
}

// handleSubscribe validates and stores a subscription, then echoes the
// normalized form back under the same event name the client used.
func (h *Hub) handleSubscribe(s *session, env envelope) {
	var p subscribePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		h.pushError(s, fmt.Sprintf("Invalid payload: %v", err))
		return
	}
	if p.Exchange == nil || p.Filters == nil {
		h.pushError(s, "Invalid payload: exchange and filters are required")
		return
	}

	stored, err := h.registry.Update(s.id, *p.Exchange, *p.Filters)
	if err != nil {
		h.pushError(s, fmt.Sprintf("Invalid payload: %v", err))
		return
	}

	h.push(s, message{
		Event:   env.Event,
		Payload: acceptedPayload{Exchange: *p.Exchange, Filters: stored},
	})
}

func (h *Hub) pushError(s *session, detail string) {
	h.push(s, message{Event: EventError, Payload: detail})
}

// push serializes and enqueues one outbound message. A full buffer drops
// the message; transport failures are detected by the write pump.
func (h *Hub) push(s *session, msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("outbound message marshal failed", "event", msg.Event, "error", err)
		return
	}
	if !s.enqueue(data) {
		h.logger.Warn("outbound message dropped", "session_id", s.id, "event", msg.Event)
	}
}
