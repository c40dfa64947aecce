package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewopara/market-screener/internal/config"
	"github.com/ewopara/market-screener/internal/database"
	"github.com/ewopara/market-screener/internal/feed"
	"github.com/ewopara/market-screener/internal/httpapi"
	"github.com/ewopara/market-screener/internal/hub"
	"github.com/ewopara/market-screener/internal/provider"
	"github.com/ewopara/market-screener/internal/subscription"
	"github.com/ewopara/market-screener/internal/technicals"
	"github.com/ewopara/market-screener/internal/tickers"
	"github.com/ewopara/market-screener/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/screener.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting screener",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"feed_exchanges", cfg.Feed.Exchanges,
		"addr", cfg.Server.Addr,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Provider client shared by reference lists and technicals
	client := provider.NewClient(
		cfg.Provider.APIKey,
		provider.WithLogger(logger),
		provider.WithTimeout(cfg.Provider.Timeout),
		provider.WithRetries(cfg.Provider.MaxRetries, time.Second),
		provider.WithRateLimit(cfg.Provider.RateLimit, cfg.Provider.RateBurst),
	)

	// Reference ticker cache
	tickerSvc := tickers.NewService(tickers.Config{
		Exchanges:     cfg.Tickers.Exchanges,
		MaxAge:        cfg.Tickers.MaxAge,
		CheckInterval: cfg.Tickers.CheckInterval,
		Timeout:       cfg.Tickers.Timeout,
	}, tickers.NewStore(pool), client, logger)

	if err := tickerSvc.Start(ctx); err != nil {
		logger.Error("failed to start ticker service", "error", err)
		os.Exit(1)
	}

	// Rating computation
	rater := technicals.NewRater(technicals.Config{
		Concurrency: cfg.Technicals.Concurrency,
		Timeframe:   cfg.Technicals.Timeframe,
		Timeout:     cfg.Technicals.Timeout,
	}, client, logger)

	// Client sessions and their subscriptions
	registry := subscription.NewRegistry()
	sessionHub := hub.New(hub.Config{
		SendBuffer:   cfg.Hub.SendBuffer,
		WriteTimeout: cfg.Hub.WriteTimeout,
		PongWait:     cfg.Hub.PongWait,
		PingPeriod:   cfg.Hub.PingPeriod,
		ReadLimit:    cfg.Hub.ReadLimit,
	}, registry, logger)

	// One feed listener per configured exchange
	var listeners []*feed.Listener
	for _, exchange := range cfg.Feed.Exchanges {
		url, err := client.StreamEndpoint(exchange)
		if err != nil {
			logger.Error("unknown feed exchange", "exchange", exchange, "error", err)
			os.Exit(1)
		}

		listener, err := feed.NewListener(feed.Config{
			Exchange:           exchange,
			URL:                url,
			APIKey:             client.Credential(),
			ReconcileInterval:  cfg.Feed.ReconcileInterval,
			ReconnectBaseDelay: cfg.Feed.ReconnectBaseDelay,
			ReconnectMaxDelay:  cfg.Feed.ReconnectMaxDelay,
			HandshakeTimeout:   cfg.Feed.HandshakeTimeout,
			WriteTimeout:       cfg.Feed.WriteTimeout,
			BufferSize:         cfg.Feed.BufferSize,
		}, registry, sessionHub, logger)
		if err != nil {
			logger.Error("failed to create feed listener", "exchange", exchange, "error", err)
			os.Exit(1)
		}

		if err := listener.Start(ctx); err != nil {
			logger.Error("failed to start feed listener", "exchange", exchange, "error", err)
			os.Exit(1)
		}
		listeners = append(listeners, listener)
	}

	// HTTP surface: websocket endpoint, reference lists, technicals
	server := httpapi.New(httpapi.Config{
		Addr:        cfg.Server.Addr,
		ReadTimeout: cfg.Server.ReadTimeout,
	}, sessionHub, tickerSvc, rater, logger)

	if err := server.Start(); err != nil {
		logger.Error("failed to start http server", "error", err)
		os.Exit(1)
	}

	logger.Info("screener running",
		"addr", cfg.Server.Addr,
		"feed_exchanges", cfg.Feed.Exchanges,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", "error", err)
	}
	for _, listener := range listeners {
		if err := listener.Stop(shutdownCtx); err != nil {
			logger.Warn("feed listener stop failed", "error", err)
		}
	}
	if err := tickerSvc.Stop(shutdownCtx); err != nil {
		logger.Warn("ticker service stop failed", "error", err)
	}
	sessionHub.Shutdown()

	logger.Info("screener stopped")
}
