package subscription

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ewopara/market-screener/internal/model"
)

// ErrInvalidPayload indicates a malformed subscription payload. The offending
// session's prior state is left unchanged.
var ErrInvalidPayload = errors.New("invalid subscription payload")

// Registry tracks per-client subscription state.
type Registry interface {
	// Register creates an empty session entry for a newly connected client.
	Register(id uuid.UUID)

	// Unregister removes the session entry. No-op if absent.
	Unregister(id uuid.UUID)

	// Update validates and stores the session's (exchange, filter) pair
	// atomically, lower-casing every filter ticker. Returns the stored
	// normalized filter, or ErrInvalidPayload without touching prior state.
	Update(id uuid.UUID, exchange string, filter model.Filter) (model.Filter, error)

	// Clear resets the session's filter to empty. The exchange is kept, but
	// an empty filter matches nothing either way.
	Clear(id uuid.UUID)

	// MatchingClients returns every session whose exchange equals the tick's
	// exchange and whose non-empty filter matches the tick. No ordering, no
	// duplicates.
	MatchingClients(tick model.NormalizedTick) []uuid.UUID

	// DesiredSymbols returns the union of filter tickers across all sessions
	// subscribed to the given exchange.
	DesiredSymbols(exchange string) map[string]struct{}
}
