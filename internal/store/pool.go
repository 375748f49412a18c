package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Pool hands out exclusive synchronous connections. Its size bounds the
// number of concurrent database operations; each checked-out Conn belongs to
// exactly one worker for the duration of one handling call.
type Pool struct {
	store       *Store
	tokens      chan struct{}
	waitTimeout time.Duration
}

// NewPool builds a bounded connection pool over the store's handle. Acquire
// blocks for at most waitTimeout when every connection is in use.
func NewPool(store *Store, size int, waitTimeout time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	store.db.SetMaxOpenConns(size)
	tokens := make(chan struct{}, size)
	for i := 0; i < size; i++ {
		tokens <- struct{}{}
	}
	return &Pool{store: store, tokens: tokens, waitTimeout: waitTimeout}
}

// Acquire checks out an exclusive connection, failing when none frees up
// within the pool's wait policy.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	timer := time.NewTimer(p.waitTimeout)
	defer timer.Stop()

	select {
	case <-p.tokens:
	case <-timer.C:
		return nil, fmt.Errorf("connection pool exhausted: no connection freed within %s", p.waitTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire connection: %w", ctx.Err())
	}

	conn, err := p.store.db.Conn(ctx)
	if err != nil {
		p.tokens <- struct{}{}
		return nil, fmt.Errorf("checkout connection: %w", err)
	}
	return &Conn{conn: conn, pool: p}, nil
}

// Conn is one exclusively held database connection.
type Conn struct {
	conn *sql.Conn
	pool *Pool
}

// Release returns the connection to the pool. Safe to call once per Conn;
// the Conn must not be used afterwards.
func (c *Conn) Release() {
	if c == nil || c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.conn = nil
	c.pool.tokens <- struct{}{}
}

// WithTx runs fn inside one transaction on this connection, committing only
// when fn returns nil and rolling back otherwise.
func (c *Conn) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Read-side queries used by the worker handlers.

// PodcastsAlphabetical lists podcasts ordered by title.
func (c *Conn) PodcastsAlphabetical(ctx context.Context, limit int) ([]Podcast, error) {
	return podcastsAlphabetical(ctx, c.conn, limit)
}

// PodcastByID loads a podcast, nil when unknown.
func (c *Conn) PodcastByID(ctx context.Context, id int64) (*Podcast, error) {
	return podcastByID(ctx, c.conn, id)
}

// EpisodeByID loads an episode, nil when unknown.
func (c *Conn) EpisodeByID(ctx context.Context, id int64) (*Episode, error) {
	return episodeByID(ctx, c.conn, id)
}

// EpisodesByPodcast lists a podcast's episodes, most recent first.
func (c *Conn) EpisodesByPodcast(ctx context.Context, podcastID int64, limit int) ([]Episode, error) {
	return episodesByPodcast(ctx, c.conn, podcastID, limit)
}

// DirectoryPodcastByID loads a directory podcast, nil when unknown.
func (c *Conn) DirectoryPodcastByID(ctx context.Context, id int64) (*DirectoryPodcast, error) {
	return directoryPodcastByID(ctx, c.conn, id)
}

// AccountPodcastFor loads subscription state for the pair, nil when absent.
func (c *Conn) AccountPodcastFor(ctx context.Context, accountID, podcastID int64) (*AccountPodcast, error) {
	return accountPodcastFor(ctx, c.conn, accountID, podcastID)
}
