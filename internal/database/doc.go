// Package database provides connection pool management for PostgreSQL.
//
// The screener keeps its durable state small: cached reference ticker
// lists per exchange with their refresh timestamps. Everything streaming
// stays in memory.
package database
