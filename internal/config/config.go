package config

import "time"

// ScreenerConfig is the root configuration for a screener instance.
type ScreenerConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Provider   ProviderConfig   `yaml:"provider"`
	Database   DatabaseConfig   `yaml:"database"`
	Feed       FeedConfig       `yaml:"feed"`
	Hub        HubConfig        `yaml:"hub"`
	Tickers    TickersConfig    `yaml:"tickers"`
	Technicals TechnicalsConfig `yaml:"technicals"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// ProviderConfig holds market data provider API settings.
type ProviderConfig struct {
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RateLimit  float64       `yaml:"rate_limit"`
	RateBurst  int           `yaml:"rate_burst"`
}

// DatabaseConfig holds the PostgreSQL connection for reference data.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// FeedConfig holds upstream feed listener settings.
type FeedConfig struct {
	// Exchanges are the streaming feeds to run a listener for.
	Exchanges          []string      `yaml:"exchanges"`
	ReconcileInterval  time.Duration `yaml:"reconcile_interval"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// HubConfig holds downstream client session settings.
type HubConfig struct {
	SendBuffer   int           `yaml:"send_buffer"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PongWait     time.Duration `yaml:"pong_wait"`
	PingPeriod   time.Duration `yaml:"ping_period"`
	ReadLimit    int64         `yaml:"read_limit"`
}

// TickersConfig holds reference list refresh settings.
type TickersConfig struct {
	Exchanges     []string      `yaml:"exchanges"`
	MaxAge        time.Duration `yaml:"max_age"`
	CheckInterval time.Duration `yaml:"check_interval"`
	Timeout       time.Duration `yaml:"timeout"`
}

// TechnicalsConfig holds rating computation settings.
type TechnicalsConfig struct {
	Concurrency int64         `yaml:"concurrency"`
	Timeframe   string        `yaml:"timeframe"`
	Timeout     time.Duration `yaml:"timeout"`
}
