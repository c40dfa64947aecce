package model

import "strings"

// -----------------------------------------------------------------------------
// Streaming Types
// -----------------------------------------------------------------------------

// Tick type tags as delivered by the upstream feed.
const (
	TickTrade = "T"
	TickQuote = "Q"
	TickBook  = "B"
)

// NormalizedTick is one normalized market data update (trade, quote, or book
// snapshot) for one symbol.
type NormalizedTick struct {
	Ticker    string   `json:"ticker"`              // Lower-cased symbol
	Timestamp int64    `json:"timestamp"`           // ms since epoch (0 if upstream omitted it)
	Type      string   `json:"type"`                // "T", "Q", or "B"
	Exchange  string   `json:"exchange"`            // Exchange this tick came from
	AskPrice  *float64 `json:"ask_price"`           // Best ask price
	AskSize   *float64 `json:"ask_size"`            // Best ask size
	BidPrice  *float64 `json:"bid_price"`           // Best bid price
	BidSize   *float64 `json:"bid_size"`            // Best bid size
	LastPrice *float64 `json:"last_price"`          // Last traded price
	LastSize  *float64 `json:"last_size"`           // Last traded size
	Volume    *float64 `json:"volume,omitempty"`    // Session volume, when the feed provides it
	MarketCap *float64 `json:"market_cap,omitempty"`
	Sector    string   `json:"sector,omitempty"`
}

// Filter is a client-declared predicate selecting which ticks should be
// pushed to it. All fields are optional; an absent field is unconstrained.
// An empty filter matches nothing: clients must explicitly opt in.
type Filter struct {
	Ticker       []string `json:"ticker,omitempty"`
	Sector       []string `json:"sector,omitempty"`
	VolumeMin    *float64 `json:"volume_min,omitempty"`
	VolumeMax    *float64 `json:"volume_max,omitempty"`
	MarketCapMin *float64 `json:"market_cap_min,omitempty"`
	MarketCapMax *float64 `json:"market_cap_max,omitempty"`
}

// IsEmpty reports whether no filter dimension is set.
func (f Filter) IsEmpty() bool {
	return len(f.Ticker) == 0 &&
		len(f.Sector) == 0 &&
		f.VolumeMin == nil && f.VolumeMax == nil &&
		f.MarketCapMin == nil && f.MarketCapMax == nil
}

// Normalized returns a copy of the filter with every ticker lower-cased.
// Slices are copied so the caller's value can be mutated safely afterwards.
func (f Filter) Normalized() Filter {
	out := f
	if len(f.Ticker) > 0 {
		out.Ticker = make([]string, len(f.Ticker))
		for i, t := range f.Ticker {
			out.Ticker[i] = strings.ToLower(t)
		}
	}
	if len(f.Sector) > 0 {
		out.Sector = append([]string(nil), f.Sector...)
	}
	return out
}

// Matches evaluates every present dimension against the tick; all present
// dimensions must pass. Missing tick volume/market cap is treated as zero for
// the range tests. A sector filter never matches a tick without a sector.
func (f Filter) Matches(tick NormalizedTick) bool {
	if f.IsEmpty() {
		return false
	}

	if len(f.Ticker) > 0 && !contains(f.Ticker, tick.Ticker) {
		return false
	}
	if len(f.Sector) > 0 && !contains(f.Sector, tick.Sector) {
		return false
	}

	volume := floatOrZero(tick.Volume)
	if f.VolumeMin != nil && volume < *f.VolumeMin {
		return false
	}
	if f.VolumeMax != nil && volume > *f.VolumeMax {
		return false
	}

	marketCap := floatOrZero(tick.MarketCap)
	if f.MarketCapMin != nil && marketCap < *f.MarketCapMin {
		return false
	}
	if f.MarketCapMax != nil && marketCap > *f.MarketCapMax {
		return false
	}

	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// -----------------------------------------------------------------------------
// Reference Types
// -----------------------------------------------------------------------------

// TickerEntry is one row of a cached reference ticker list.
type TickerEntry struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Rating is a technical-indicator rating for one symbol.
type Rating struct {
	Score  int    `json:"score"`  // Sum of per-indicator scores, clamped to [-3, 3]
	Rating string `json:"rating"` // "Strong Buy" .. "Strong Sell"
}
