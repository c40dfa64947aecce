package tickers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ewopara/market-screener/internal/model"
)

// ReferenceSource fetches the authoritative symbol list for an exchange.
type ReferenceSource interface {
	SymbolList(ctx context.Context, exchange string) ([]model.TickerEntry, error)
}

// Config holds refresh service configuration.
type Config struct {
	// Exchanges are the reference lists this service maintains.
	Exchanges []string `yaml:"exchanges"`
	// MaxAge is how old a list may get before the background loop
	// refreshes it.
	MaxAge time.Duration `yaml:"max_age"`
	// CheckInterval is how often staleness is evaluated.
	CheckInterval time.Duration `yaml:"check_interval"`
	// Timeout bounds a single list refresh.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Exchanges:     []string{"stocks", "etf", "crypto", "forex", "commodities", "cot"},
		MaxAge:        24 * time.Hour,
		CheckInterval: time.Hour,
		Timeout:       2 * time.Minute,
	}
}

// Service serves cached reference lists and keeps them fresh.
type Service struct {
	cfg    Config
	store  Store
	source ReferenceSource
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a refresh service over the given store and source.
func NewService(cfg Config, store Store, source ReferenceSource, logger *slog.Logger) *Service {
	def := DefaultConfig()
	if len(cfg.Exchanges) == 0 {
		cfg.Exchanges = def.Exchanges
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:    cfg,
		store:  store,
		source: source,
		logger: logger,
	}
}

// Start begins the background staleness loop.
func (s *Service) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("ticker refresh service started",
		"exchanges", s.cfg.Exchanges,
		"max_age", s.cfg.MaxAge,
	)
	return nil
}

// Stop shuts the background loop down.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("ticker refresh service stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns the cached list for an exchange, refreshing it first when
// the cache is empty.
func (s *Service) List(ctx context.Context, exchange string) ([]model.TickerEntry, error) {
	if !s.knownExchange(exchange) {
		return nil, fmt.Errorf("unknown reference exchange %q", exchange)
	}

	entries, err := s.store.List(ctx, exchange)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}

	if err := s.Refresh(ctx, exchange); err != nil {
		return nil, err
	}
	return s.store.List(ctx, exchange)
}

// Refresh replaces one exchange's cached list from the provider.
func (s *Service) Refresh(ctx context.Context, exchange string) error {
	if !s.knownExchange(exchange) {
		return fmt.Errorf("unknown reference exchange %q", exchange)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	entries, err := s.source.SymbolList(ctx, exchange)
	if err != nil {
		return fmt.Errorf("fetch %s list: %w", exchange, err)
	}
	if len(entries) == 0 {
		// An empty upstream list is far more likely a provider hiccup
		// than every symbol delisting at once; keep what we have.
		return fmt.Errorf("fetch %s list: provider returned no symbols", exchange)
	}

	if err := s.store.ReplaceList(ctx, exchange, entries); err != nil {
		return fmt.Errorf("store %s list: %w", exchange, err)
	}

	s.logger.Info("reference list refreshed",
		"exchange", exchange,
		"symbols", len(entries),
		"duration", time.Since(start),
	)
	return nil
}

// RefreshAll refreshes every configured exchange, collecting failures
// instead of stopping at the first one.
func (s *Service) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, exchange := range s.cfg.Exchanges {
		if err := s.Refresh(ctx, exchange); err != nil {
			s.logger.Warn("reference refresh failed", "exchange", exchange, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) knownExchange(exchange string) bool {
	for _, e := range s.cfg.Exchanges {
		if e == exchange {
			return true
		}
	}
	return false
}

// run periodically refreshes exchanges whose cache has gone stale.
func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	// Refresh anything stale immediately on start.
	s.refreshStale()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.refreshStale()
		}
	}
}

func (s *Service) refreshStale() {
	for _, exchange := range s.cfg.Exchanges {
		refreshed, err := s.store.LastRefreshed(s.ctx, exchange)
		if err != nil {
			s.logger.Warn("refresh time lookup failed", "exchange", exchange, "error", err)
			continue
		}
		if time.Since(refreshed) < s.cfg.MaxAge {
			continue
		}

		if err := s.Refresh(s.ctx, exchange); err != nil {
			s.logger.Warn("stale refresh failed", "exchange", exchange, "error", err)
		}
	}
}
