// Package daemon ties the store, the worker pool, and the web server into a
// single lifecycle with flock-based locking to prevent multiple instances
// over one database.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"chorus/internal/config"
	"chorus/internal/executor"
	"chorus/internal/gql"
	"chorus/internal/logging"
	"chorus/internal/mediator"
	"chorus/internal/store"
	"chorus/internal/web"
)

// Daemon owns the long-lived pieces of a chorus server process.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store   *store.Store
	conns   *store.Pool
	workers *executor.Pool
	server  *web.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Options carries optional collaborators. Resolver may be nil; directory
// expansion then records an exception instead of fetching feeds.
type Options struct {
	Resolver mediator.FeedResolver
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	conns := store.NewPool(st, cfg.Server.Workers, time.Duration(cfg.Server.PoolWaitSeconds)*time.Second)
	workers := executor.NewPool(conns, cfg.Server.Workers, logger)

	schema, err := gql.NewSchema()
	if err != nil {
		workers.Stop()
		_ = st.Close()
		return nil, fmt.Errorf("build schema: %w", err)
	}

	server := web.NewServer(cfg, logger, web.Options{
		Schema:  schema,
		Workers: workers,
		Auth: []web.Authenticator{
			&web.KeyAuthenticator{Accounts: st},
			&web.SessionAuthenticator{Accounts: st, CookieName: cfg.Server.SessionCookie},
		},
		Resolver: opts.Resolver,
	})

	lockPath := filepath.Join(cfg.Paths.LogDir, "chorusd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.Component("daemon")),
		store:    st,
		conns:    conns,
		workers:  workers,
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and begins serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another chorus daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("chorus daemon started",
		logging.String("address", d.server.Addr()),
		logging.String("lock", d.lockPath))
	return nil
}

// Addr reports the web server's bound address.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// Stop drains the server and the worker pool and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	d.workers.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("chorus daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
