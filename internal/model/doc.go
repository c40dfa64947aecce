// Package model defines shared data types used across the Market Screener backend.
//
// Conventions:
//   - Tick symbols: lower-cased strings
//   - Timestamps: int64 milliseconds since Unix epoch
//   - Optional tick fields: *float64, nil when the upstream feed omitted them
package model
