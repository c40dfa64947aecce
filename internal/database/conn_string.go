package database

import (
	"fmt"
	"net/url"

	"github.com/ewopara/market-screener/internal/config"
)

// BuildConnString builds the PostgreSQL connection string for the
// reference cache from config.
func BuildConnString(cfg config.DBConfig) string {
	// Passwords with @ : / must survive the DSN intact.
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
