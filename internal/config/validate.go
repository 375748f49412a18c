package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be a host:port address: %w", err)
	}
	if c.Server.Workers < 1 {
		return errors.New("server.workers must be at least 1")
	}
	if c.Server.PoolWaitSeconds < 1 {
		return errors.New("server.pool_wait_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
