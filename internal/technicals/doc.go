// Package technicals computes composite buy/sell ratings for symbols.
//
// A rating aggregates four signals from the provider's indicator series:
// RSI extremes, ADX trend strength, Williams %R extremes, and whether the
// latest close sits above its moving average. Each signal contributes at
// most one point in either direction; the summed score maps to a label
// from Strong Sell to Strong Buy.
package technicals
