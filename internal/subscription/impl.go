package subscription

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ewopara/market-screener/internal/model"
)

// session is one client's stored subscription state.
type session struct {
	exchange string
	filter   model.Filter
}

// registryImpl implements the Registry interface with a single mutex over
// the session map. Reads take the lock for the full snapshot so matching
// never sees a half-replaced session.
type registryImpl struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]session
}

// NewRegistry creates an empty Subscription Registry.
func NewRegistry() Registry {
	return &registryImpl{
		sessions: make(map[uuid.UUID]session),
	}
}

// Register creates an empty session entry.
func (r *registryImpl) Register(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = session{}
}

// Unregister removes the session entry. Idempotent.
func (r *registryImpl) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Update validates and atomically replaces the session's stored state.
func (r *registryImpl) Update(id uuid.UUID, exchange string, filter model.Filter) (model.Filter, error) {
	if exchange == "" {
		return model.Filter{}, ErrInvalidPayload
	}

	normalized := filter.Normalized()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		// Unknown session: the client was never registered or already
		// disconnected. Nothing to store.
		return model.Filter{}, ErrInvalidPayload
	}

	r.sessions[id] = session{exchange: exchange, filter: normalized}
	return normalized, nil
}

// Clear empties the session's filter, keeping the exchange.
func (r *registryImpl) Clear(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}
	s.filter = model.Filter{}
	r.sessions[id] = s
}

// MatchingClients evaluates every session against the tick.
func (r *registryImpl) MatchingClients(tick model.NormalizedTick) []uuid.UUID {
	if tick.Exchange == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []uuid.UUID
	for id, s := range r.sessions {
		if s.exchange != tick.Exchange {
			continue
		}
		if s.filter.Matches(tick) {
			matched = append(matched, id)
		}
	}
	return matched
}

// DesiredSymbols unions filter tickers across the exchange's sessions.
func (r *registryImpl) DesiredSymbols(exchange string) map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	symbols := make(map[string]struct{})
	for _, s := range r.sessions {
		if s.exchange != exchange {
			continue
		}
		for _, t := range s.filter.Ticker {
			symbols[t] = struct{}{}
		}
	}
	return symbols
}
