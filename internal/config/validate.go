package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ScreenerConfig) Validate() error {
	if c.Provider.APIKey == "" {
		return errors.New("provider.api_key is required")
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if len(c.Feed.Exchanges) == 0 {
		return errors.New("feed.exchanges must name at least one exchange")
	}
	if c.Feed.BufferSize < 1 {
		return errors.New("feed.buffer_size must be >= 1")
	}

	if c.Hub.SendBuffer < 1 {
		return errors.New("hub.send_buffer must be >= 1")
	}
	if c.Hub.PingPeriod >= c.Hub.PongWait {
		return fmt.Errorf("hub.ping_period (%s) must be less than hub.pong_wait (%s)",
			c.Hub.PingPeriod, c.Hub.PongWait)
	}

	if c.Technicals.Concurrency < 1 {
		return errors.New("technicals.concurrency must be >= 1")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
