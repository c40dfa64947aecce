package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
server:
  addr: ":9000"
provider:
  api_key: test-key
database:
  postgres:
    host: localhost
    name: screener
    user: screener
    password: secret
feed:
  exchanges: [crypto, forex]
`

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Errorf("Provider.APIKey = %q", cfg.Provider.APIKey)
	}
	if len(cfg.Feed.Exchanges) != 2 {
		t.Errorf("Feed.Exchanges = %v", cfg.Feed.Exchanges)
	}

	// Defaults fill everything left unset.
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Feed.ReconnectBaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("ReconnectBaseDelay = %s, want default %s", cfg.Feed.ReconnectBaseDelay, DefaultReconnectBaseDelay)
	}
	if cfg.Hub.PongWait != DefaultPongWait {
		t.Errorf("Hub.PongWait = %s, want default %s", cfg.Hub.PongWait, DefaultPongWait)
	}
	if cfg.Tickers.MaxAge != 24*time.Hour {
		t.Errorf("Tickers.MaxAge = %s, want 24h", cfg.Tickers.MaxAge)
	}
	if cfg.Technicals.Timeframe != "1day" {
		t.Errorf("Technicals.Timeframe = %q", cfg.Technicals.Timeframe)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("SCREENER_TEST_KEY", "from-env")

	path := writeConfig(t, `
provider:
  api_key: ${SCREENER_TEST_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.Provider.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestValidate(t *testing.T) {
	base := func() *ScreenerConfig {
		cfg, err := LoadWithDefaults(writeConfig(t, validConfig))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*ScreenerConfig)
		wantErr string
	}{
		{
			name:    "valid",
			mutate:  func(*ScreenerConfig) {},
			wantErr: "",
		},
		{
			name:    "missing api key",
			mutate:  func(c *ScreenerConfig) { c.Provider.APIKey = "" },
			wantErr: "api_key",
		},
		{
			name:    "missing db host",
			mutate:  func(c *ScreenerConfig) { c.Database.Postgres.Host = "" },
			wantErr: "host",
		},
		{
			name:    "min conns above max",
			mutate:  func(c *ScreenerConfig) { c.Database.Postgres.MinConns = 50 },
			wantErr: "min_conns",
		},
		{
			name:    "no feed exchanges",
			mutate:  func(c *ScreenerConfig) { c.Feed.Exchanges = nil },
			wantErr: "feed.exchanges",
		},
		{
			name:    "ping period above pong wait",
			mutate:  func(c *ScreenerConfig) { c.Hub.PingPeriod = 2 * c.Hub.PongWait },
			wantErr: "ping_period",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
