// Package hub implements the Client Session Hub component.
//
// The hub accepts downstream websocket connections, translates inbound
// control messages into Subscription Registry mutations, and exposes the
// push primitive feed listeners use to deliver matched ticks. Each session
// owns a buffered send channel drained by a write pump; a failed write
// implies the connection is gone and triggers idempotent disconnect
// cleanup.
package hub
