package hub

import (
	"github.com/goccy/go-json"

	"github.com/ewopara/market-screener/internal/model"
)

// Client protocol events.
const (
	EventStatus             = "status"
	EventUpdate             = "update"
	EventError              = "error"
	EventUnsubscribed       = "unsubscribed"
	EventSubscribe          = "subscribe"
	EventUpdateSubscription = "update_subscription"
	EventUnsubscribe        = "unsubscribe"
)

// envelope is the inbound message shape; Payload is decoded per event.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// message is the outbound message shape.
type message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// subscribePayload is the payload for subscribe/update_subscription.
// Pointer fields distinguish "absent or wrong type" from legitimate zero
// values, so validation happens once at this boundary.
type subscribePayload struct {
	Exchange *string       `json:"exchange"`
	Filters  *model.Filter `json:"filters"`
}

// acceptedPayload echoes a stored subscription back to the client.
type acceptedPayload struct {
	Exchange string       `json:"exchange"`
	Filters  model.Filter `json:"filters"`
}
