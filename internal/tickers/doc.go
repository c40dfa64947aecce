// Package tickers maintains the cached reference symbol lists the REST
// API serves. Lists are fetched from the provider, persisted per exchange
// in PostgreSQL with a refresh timestamp, and refreshed in the background
// once they go stale. REST handlers can also force a refresh.
package tickers
