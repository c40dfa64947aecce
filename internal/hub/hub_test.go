package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/ewopara/market-screener/internal/model"
	"github.com/ewopara/market-screener/internal/subscription"
)

type wireMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func dialTestHub(t *testing.T) (*Hub, subscription.Registry, *websocket.Conn) {
	t.Helper()

	registry := subscription.NewRegistry()
	h := New(DefaultConfig(), registry, nil)

	srv := httptest.NewServer(http.HandlerFunc(h.Accept))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return h, registry, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("message %q is not valid JSON: %v", data, err)
	}
	return msg
}

func sendMessage(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	data, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestHub_ConnectGreeting(t *testing.T) {
	h, _, conn := dialTestHub(t)

	msg := readMessage(t, conn)
	if msg.Event != EventStatus {
		t.Fatalf("first event = %q, want %q", msg.Event, EventStatus)
	}

	var greeting string
	if err := json.Unmarshal(msg.Payload, &greeting); err != nil {
		t.Fatal(err)
	}
	if greeting != "Connected to Market Screener WebSocket" {
		t.Errorf("greeting = %q", greeting)
	}

	if h.Sessions() != 1 {
		t.Errorf("Sessions() = %d, want 1", h.Sessions())
	}
}

func TestHub_SubscribeLifecycle(t *testing.T) {
	h, registry, conn := dialTestHub(t)
	readMessage(t, conn) // greeting

	sendMessage(t, conn, EventSubscribe, map[string]any{
		"exchange": "crypto",
		"filters":  map[string]any{"ticker": []string{"BTCUSD"}},
	})

	echo := readMessage(t, conn)
	if echo.Event != EventSubscribe {
		t.Fatalf("echo event = %q, want %q", echo.Event, EventSubscribe)
	}
	var accepted acceptedPayload
	if err := json.Unmarshal(echo.Payload, &accepted); err != nil {
		t.Fatal(err)
	}
	if accepted.Exchange != "crypto" {
		t.Errorf("echoed exchange = %q, want crypto", accepted.Exchange)
	}
	if len(accepted.Filters.Ticker) != 1 || accepted.Filters.Ticker[0] != "btcusd" {
		t.Errorf("echoed tickers = %v, want lowercased [btcusd]", accepted.Filters.Ticker)
	}

	// The stored subscription routes matching ticks back to this session.
	price := 65000.0
	tick := model.NormalizedTick{
		Ticker:    "btcusd",
		Type:      model.TickTrade,
		Exchange:  "crypto",
		Timestamp: 1700000000000,
		LastPrice: &price,
	}
	matched := registry.MatchingClients(tick)
	if len(matched) != 1 {
		t.Fatalf("MatchingClients = %d sessions, want 1", len(matched))
	}

	h.PushTick(matched[0], tick)
	update := readMessage(t, conn)
	if update.Event != EventUpdate {
		t.Fatalf("push event = %q, want %q", update.Event, EventUpdate)
	}
	var got model.NormalizedTick
	if err := json.Unmarshal(update.Payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.Ticker != "btcusd" || got.LastPrice == nil || *got.LastPrice != 65000 {
		t.Errorf("pushed tick = %+v", got)
	}

	// Unsubscribe clears the filter but keeps the session connected.
	sendMessage(t, conn, EventUnsubscribe, map[string]any{})
	done := readMessage(t, conn)
	if done.Event != EventUnsubscribed {
		t.Fatalf("event = %q, want %q", done.Event, EventUnsubscribed)
	}
	if len(registry.MatchingClients(tick)) != 0 {
		t.Error("cleared subscription still matches ticks")
	}
	if h.Sessions() != 1 {
		t.Errorf("Sessions() after unsubscribe = %d, want 1", h.Sessions())
	}
}

func TestHub_UpdateReplacesSubscription(t *testing.T) {
	_, registry, conn := dialTestHub(t)
	readMessage(t, conn)

	sendMessage(t, conn, EventSubscribe, map[string]any{
		"exchange": "crypto",
		"filters":  map[string]any{"ticker": []string{"btcusd"}},
	})
	readMessage(t, conn)

	sendMessage(t, conn, EventUpdateSubscription, map[string]any{
		"exchange": "crypto",
		"filters":  map[string]any{"ticker": []string{"ethusd"}},
	})
	echo := readMessage(t, conn)
	if echo.Event != EventUpdateSubscription {
		t.Fatalf("echo event = %q, want %q", echo.Event, EventUpdateSubscription)
	}

	desired := registry.DesiredSymbols("crypto")
	if _, ok := desired["btcusd"]; ok {
		t.Error("replaced filter still contributes btcusd")
	}
	if _, ok := desired["ethusd"]; !ok {
		t.Error("updated filter does not contribute ethusd")
	}
}

func TestHub_RejectsBadMessages(t *testing.T) {
	_, registry, conn := dialTestHub(t)
	readMessage(t, conn)

	// Missing filters field.
	sendMessage(t, conn, EventSubscribe, map[string]any{"exchange": "crypto"})
	msg := readMessage(t, conn)
	if msg.Event != EventError {
		t.Fatalf("event = %q, want %q", msg.Event, EventError)
	}

	// Missing exchange must not create a registry entry.
	sendMessage(t, conn, EventSubscribe, map[string]any{
		"filters": map[string]any{"ticker": []string{"btcusd"}},
	})
	if msg := readMessage(t, conn); msg.Event != EventError {
		t.Fatalf("event = %q, want %q", msg.Event, EventError)
	}
	if len(registry.DesiredSymbols("crypto")) != 0 {
		t.Error("rejected subscribe mutated the registry")
	}

	// Unknown event names the offending event.
	sendMessage(t, conn, "resubscribe", map[string]any{})
	msg = readMessage(t, conn)
	if msg.Event != EventError {
		t.Fatalf("event = %q, want %q", msg.Event, EventError)
	}
	var detail string
	if err := json.Unmarshal(msg.Payload, &detail); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(detail, "resubscribe") {
		t.Errorf("error detail %q does not name the event", detail)
	}
}

func TestHub_DisconnectCleansUp(t *testing.T) {
	h, registry, conn := dialTestHub(t)
	readMessage(t, conn)

	sendMessage(t, conn, EventSubscribe, map[string]any{
		"exchange": "crypto",
		"filters":  map[string]any{"ticker": []string{"btcusd"}},
	})
	readMessage(t, conn)

	conn.Close()

	deadline := time.After(3 * time.Second)
	for h.Sessions() != 0 {
		select {
		case <-deadline:
			t.Fatalf("Sessions() = %d after close, want 0", h.Sessions())
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(registry.DesiredSymbols("crypto")) != 0 {
		t.Error("closed session left symbols in the registry")
	}
}
