package feed

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected        = errors.New("not connected")
	ErrAlreadyClosed       = errors.New("already closed")
	ErrAuthFailed          = errors.New("upstream login rejected")
	ErrUnsupportedExchange = errors.New("unsupported exchange")
)

// Config configures a listener for one exchange.
type Config struct {
	Exchange string // Exchange name (e.g. "crypto")
	URL      string // wss endpoint for this exchange's feed
	APIKey   string // Provider credential for the login frame

	ReconcileInterval  time.Duration // Interval between subscription reconciliations
	ReconnectBaseDelay time.Duration // First reconnect delay after a connection failure
	ReconnectMaxDelay  time.Duration // Backoff ceiling
	HandshakeTimeout   time.Duration // Dial + login round-trip deadline
	WriteTimeout       time.Duration // Write deadline for outbound frames
	BufferSize         int           // Inbound message channel capacity
}

// DefaultConfig returns sensible defaults for everything but the
// exchange-specific fields.
func DefaultConfig() Config {
	return Config{
		ReconcileInterval:  time.Second,
		ReconnectBaseDelay: 3 * time.Second,
		ReconnectMaxDelay:  60 * time.Second,
		HandshakeTimeout:   10 * time.Second,
		WriteTimeout:       5 * time.Second,
		BufferSize:         1000,
	}
}

// ListenerStats provides a point-in-time view of one listener.
type ListenerStats struct {
	Exchange     string
	Connected    bool
	Subscribed   int   // Symbols currently subscribed upstream
	TicksRouted  int64 // Ticks normalized and matched
	DecodeErrors int64 // Malformed inbound messages skipped
	Reconnects   int64 // Completed reconnect cycles
}

// Wire frames (provider protocol)

// loginFrame is the outbound authentication message.
type loginFrame struct {
	Event string    `json:"event"`
	Data  loginData `json:"data"`
}

type loginData struct {
	APIKey string `json:"apiKey"`
}

// loginReply is the expected handshake response; any status other than 200
// is a handshake failure.
type loginReply struct {
	Event  string `json:"event"`
	Status int    `json:"status"`
}

// symbolFrame carries a subscribe or unsubscribe request.
type symbolFrame struct {
	Event string     `json:"event"` // "subscribe" or "unsubscribe"
	Data  symbolData `json:"data"`
}

type symbolData struct {
	Ticker []string `json:"ticker"`
}

// tickWire is the upstream tick format. Price and size fields are optional
// and passed through as received.
type tickWire struct {
	Type      string   `json:"type"` // "T", "Q", or "B"; anything else is skipped
	Symbol    string   `json:"s"`
	Timestamp *float64 `json:"t"` // µs if > 1e12, else seconds; nil treated as absent
	AskPrice  *float64 `json:"ap"`
	AskSize   *float64 `json:"as"`
	BidPrice  *float64 `json:"bp"`
	BidSize   *float64 `json:"bs"`
	LastPrice *float64 `json:"lp"`
	LastSize  *float64 `json:"ls"`
}
