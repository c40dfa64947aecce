// Package provider wraps the Financial Modeling Prep API surface the
// screener depends on: websocket stream endpoints per exchange, reference
// symbol lists, and the technical indicator series used for ratings.
//
// All REST calls go through one rate-limited, retrying request path so
// upstream quota exhaustion degrades every caller evenly instead of
// failing whichever one happened to hit the limit.
package provider
