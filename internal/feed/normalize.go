package feed

import (
	"strings"

	"github.com/ewopara/market-screener/internal/model"
)

// normalizeTick converts an upstream wire tick into a NormalizedTick. The
// second return value is false when the message carries no symbol; such
// messages are dropped, not forwarded.
func normalizeTick(raw tickWire, exchange string) (model.NormalizedTick, bool) {
	if raw.Symbol == "" {
		return model.NormalizedTick{}, false
	}

	return model.NormalizedTick{
		Ticker:    strings.ToLower(raw.Symbol),
		Timestamp: normalizeTimestamp(raw.Timestamp),
		Type:      raw.Type,
		Exchange:  exchange,
		AskPrice:  raw.AskPrice,
		AskSize:   raw.AskSize,
		BidPrice:  raw.BidPrice,
		BidSize:   raw.BidSize,
		LastPrice: raw.LastPrice,
		LastSize:  raw.LastSize,
	}, true
}

// normalizeTimestamp converts the upstream timestamp to milliseconds since
// epoch. Values above 1e12 are microseconds, anything else positive is
// seconds; absent or non-positive values become 0.
func normalizeTimestamp(t *float64) int64 {
	if t == nil || *t <= 0 {
		return 0
	}
	if *t > 1e12 {
		return int64(*t / 1000)
	}
	return int64(*t) * 1000
}

// isTickType reports whether a type tag is one of the three recognized
// tick types.
func isTickType(t string) bool {
	return t == model.TickTrade || t == model.TickQuote || t == model.TickBook
}
