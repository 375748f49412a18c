package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chorus/internal/store"
	"chorus/internal/testsupport"
)

func TestPoolAcquireTimesOutWhenExhausted(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1), testsupport.WithPoolWait(1))
	st := testsupport.MustOpenStore(t, cfg)
	pool := testsupport.MustOpenPool(t, cfg, st)
	ctx := context.Background()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer conn.Release()

	start := time.Now()
	_, err = pool.Acquire(ctx)
	if err == nil {
		t.Fatal("expected exhausted pool to fail")
	}
	if !strings.Contains(err.Error(), "connection pool exhausted") {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 500*time.Millisecond {
		t.Fatal("Acquire returned before the wait timeout elapsed")
	}
}

func TestPoolReleaseFreesConnection(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1), testsupport.WithPoolWait(1))
	st := testsupport.MustOpenStore(t, cfg)
	pool := testsupport.MustOpenPool(t, cfg, st)
	ctx := context.Background()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	conn.Release()
	conn.Release() // second release is a no-op

	again, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	again.Release()
}

func TestPoolAcquireHonorsContext(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1), testsupport.WithPoolWait(30))
	st := testsupport.MustOpenStore(t, cfg)
	pool := testsupport.MustOpenPool(t, cfg, st)

	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer conn.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	pool := testsupport.MustOpenPool(t, cfg, st)
	ctx := context.Background()

	account := testsupport.SeedAccount(t, st)
	podcast := testsupport.SeedPodcast(t, st)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer conn.Release()

	err = conn.WithTx(ctx, func(tx *store.Tx) error {
		_, err := tx.UpsertAccountPodcast(ctx, account.ID, podcast.ID, time.Now().UTC())
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	ap, err := st.AccountPodcastFor(ctx, account.ID, podcast.ID)
	if err != nil {
		t.Fatalf("AccountPodcastFor failed: %v", err)
	}
	if ap == nil || !ap.Subscribed() {
		t.Fatalf("expected committed subscription, got %#v", ap)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	pool := testsupport.MustOpenPool(t, cfg, st)
	ctx := context.Background()

	account := testsupport.SeedAccount(t, st)
	podcast := testsupport.SeedPodcast(t, st)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer conn.Release()

	boom := errors.New("boom")
	err = conn.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.UpsertAccountPodcast(ctx, account.ID, podcast.ID, time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	ap, err := st.AccountPodcastFor(ctx, account.ID, podcast.ID)
	if err != nil {
		t.Fatalf("AccountPodcastFor failed: %v", err)
	}
	if ap != nil {
		t.Fatalf("expected rollback to discard the row, got %#v", ap)
	}
}
