// Package testsupport provides shared fixtures: temp-dir configs, store
// construction, and catalog seeding.
package testsupport

import (
	"path/filepath"
	"testing"

	"chorus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Server.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers overrides the worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) {
		c.Server.Workers = n
	}
}

// WithPoolWait overrides the pool wait policy on the test config.
func WithPoolWait(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Server.PoolWaitSeconds = seconds
	}
}
