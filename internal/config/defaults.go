package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerAddr        = ":8000"
	DefaultServerReadTimeout = 10 * time.Second

	DefaultAPITimeout = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRateLimit  = 10.0
	DefaultRateBurst  = 10

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultReconcileInterval  = 1 * time.Second
	DefaultReconnectBaseDelay = 3 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultFeedWriteTimeout   = 5 * time.Second
	DefaultFeedBufferSize     = 1000

	DefaultSendBuffer      = 256
	DefaultHubWriteTimeout = 10 * time.Second
	DefaultPongWait        = 60 * time.Second
	DefaultPingPeriod      = 50 * time.Second
	DefaultReadLimit       = 1 << 16

	DefaultTickersMaxAge        = 24 * time.Hour
	DefaultTickersCheckInterval = time.Hour
	DefaultTickersTimeout       = 2 * time.Minute

	DefaultRatingConcurrency = 8
	DefaultRatingTimeframe   = "1day"
	DefaultRatingTimeout     = 30 * time.Second
)

func (c *ScreenerConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultServerReadTimeout
	}

	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultAPITimeout
	}
	if c.Provider.MaxRetries == 0 {
		c.Provider.MaxRetries = DefaultMaxRetries
	}
	if c.Provider.RateLimit == 0 {
		c.Provider.RateLimit = DefaultRateLimit
	}
	if c.Provider.RateBurst == 0 {
		c.Provider.RateBurst = DefaultRateBurst
	}

	applyDBDefaults(&c.Database.Postgres)

	if len(c.Feed.Exchanges) == 0 {
		c.Feed.Exchanges = []string{"company", "crypto", "forex"}
	}
	if c.Feed.ReconcileInterval == 0 {
		c.Feed.ReconcileInterval = DefaultReconcileInterval
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultFeedWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}

	if c.Hub.SendBuffer == 0 {
		c.Hub.SendBuffer = DefaultSendBuffer
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = DefaultHubWriteTimeout
	}
	if c.Hub.PongWait == 0 {
		c.Hub.PongWait = DefaultPongWait
	}
	if c.Hub.PingPeriod == 0 {
		c.Hub.PingPeriod = DefaultPingPeriod
	}
	if c.Hub.ReadLimit == 0 {
		c.Hub.ReadLimit = DefaultReadLimit
	}

	if len(c.Tickers.Exchanges) == 0 {
		c.Tickers.Exchanges = []string{"stocks", "etf", "crypto", "forex", "commodities", "cot"}
	}
	if c.Tickers.MaxAge == 0 {
		c.Tickers.MaxAge = DefaultTickersMaxAge
	}
	if c.Tickers.CheckInterval == 0 {
		c.Tickers.CheckInterval = DefaultTickersCheckInterval
	}
	if c.Tickers.Timeout == 0 {
		c.Tickers.Timeout = DefaultTickersTimeout
	}

	if c.Technicals.Concurrency == 0 {
		c.Technicals.Concurrency = DefaultRatingConcurrency
	}
	if c.Technicals.Timeframe == "" {
		c.Technicals.Timeframe = DefaultRatingTimeframe
	}
	if c.Technicals.Timeout == 0 {
		c.Technicals.Timeout = DefaultRatingTimeout
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
