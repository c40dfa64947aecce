package tickers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ewopara/market-screener/internal/model"
)

// Store persists reference ticker lists per exchange.
type Store interface {
	// List returns the cached list for an exchange; empty when never refreshed.
	List(ctx context.Context, exchange string) ([]model.TickerEntry, error)

	// LastRefreshed returns when an exchange's list was last replaced.
	// The zero time means never.
	LastRefreshed(ctx context.Context, exchange string) (time.Time, error)

	// ReplaceList atomically swaps an exchange's list and stamps the refresh.
	ReplaceList(ctx context.Context, exchange string, entries []model.TickerEntry) error
}

type pgStore struct {
	db *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed store.
func NewStore(db *pgxpool.Pool) Store {
	return &pgStore{db: db}
}

func (s *pgStore) List(ctx context.Context, exchange string) ([]model.TickerEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, name
		FROM reference_tickers
		WHERE exchange = $1
		ORDER BY symbol
	`, exchange)
	if err != nil {
		return nil, fmt.Errorf("query %s list: %w", exchange, err)
	}
	defer rows.Close()

	var entries []model.TickerEntry
	for rows.Next() {
		var e model.TickerEntry
		if err := rows.Scan(&e.Symbol, &e.Name); err != nil {
			return nil, fmt.Errorf("scan %s entry: %w", exchange, err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *pgStore) LastRefreshed(ctx context.Context, exchange string) (time.Time, error) {
	var refreshed time.Time
	err := s.db.QueryRow(ctx, `
		SELECT refreshed_at
		FROM reference_refreshes
		WHERE exchange = $1
	`, exchange).Scan(&refreshed)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query %s refresh time: %w", exchange, err)
	}
	return refreshed, nil
}

func (s *pgStore) ReplaceList(ctx context.Context, exchange string, entries []model.TickerEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reference_tickers WHERE exchange = $1`, exchange); err != nil {
		return fmt.Errorf("clear %s list: %w", exchange, err)
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO reference_tickers (exchange, symbol, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (exchange, symbol) DO NOTHING
		`, exchange, e.Symbol, e.Name)
	}

	results := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert %s entries: %w", exchange, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close %s batch: %w", exchange, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO reference_refreshes (exchange, refreshed_at)
		VALUES ($1, now())
		ON CONFLICT (exchange) DO UPDATE SET refreshed_at = EXCLUDED.refreshed_at
	`, exchange); err != nil {
		return fmt.Errorf("stamp %s refresh: %w", exchange, err)
	}

	return tx.Commit(ctx)
}
