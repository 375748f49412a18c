package testsupport

import (
	"testing"
	"time"

	"chorus/internal/config"
	"chorus/internal/store"
)

// MustOpenStore opens a store for the given config and closes it when the
// test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// MustOpenPool builds a connection pool sized from the config.
func MustOpenPool(t testing.TB, cfg *config.Config, st *store.Store) *store.Pool {
	t.Helper()
	return store.NewPool(st, cfg.Server.Workers, time.Duration(cfg.Server.PoolWaitSeconds)*time.Second)
}
