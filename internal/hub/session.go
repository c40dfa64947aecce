package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// session is one connected downstream client. Outbound messages go through
// the buffered send channel so the hub never blocks on a slow connection;
// the write pump is the only goroutine that touches the connection for
// writes.
type session struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newSession(conn *websocket.Conn, buffer int) *session {
	return &session{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

// enqueue hands a message to the write pump. It reports false when the
// session is closed or its buffer is full; a full buffer drops the message
// rather than stalling the caller.
func (s *session) enqueue(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// close marks the session closed and releases the write pump. Safe to call
// more than once.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with periodic pings. It exits when the session is closed
// or a write fails.
func (s *session) writePump(h *Hub) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("session write failed", "session_id", s.id, "error", err)
				h.Disconnect(s.id)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Disconnect(s.id)
				return
			}
		}
	}
}

// readPump consumes inbound control messages until the connection drops,
// then tears the session down.
func (s *session) readPump(h *Hub) {
	s.conn.SetReadLimit(h.cfg.ReadLimit)
	s.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			break
		}
		h.handleInbound(s, data)
	}

	h.Disconnect(s.id)
}
