package executor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"chorus/internal/executor"
	"chorus/internal/logging"
	"chorus/internal/store"
	"chorus/internal/testsupport"
)

func newTestPool(t *testing.T, workers int) (*executor.Pool, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(workers))
	st := testsupport.MustOpenStore(t, cfg)
	conns := testsupport.MustOpenPool(t, cfg, st)
	pool := executor.NewPool(conns, workers, logging.NewNop())
	t.Cleanup(pool.Stop)
	return pool, st
}

func TestSubmitRunsHandlerOnConnection(t *testing.T) {
	pool, st := newTestPool(t, 2)
	podcast := testsupport.SeedPodcast(t, st)

	msg := executor.NewMessage(logging.NewNop(), podcast.ID)
	got, err := executor.Submit(context.Background(), pool, msg,
		func(ctx context.Context, conn *store.Conn, m executor.Message[int64]) (*store.Podcast, error) {
			return conn.PodcastByID(ctx, m.Params)
		})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got == nil || got.ID != podcast.ID {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestSubmitPropagatesHandlerError(t *testing.T) {
	pool, _ := newTestPool(t, 1)

	boom := errors.New("boom")
	_, err := executor.Submit(context.Background(), pool, executor.NewMessage(logging.NewNop(), struct{}{}),
		func(ctx context.Context, conn *store.Conn, m executor.Message[struct{}]) (struct{}, error) {
			return struct{}{}, boom
		})
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestSubmitRecoversWorkerPanic(t *testing.T) {
	pool, st := newTestPool(t, 1)

	_, err := executor.Submit(context.Background(), pool, executor.NewMessage(logging.NewNop(), struct{}{}),
		func(ctx context.Context, conn *store.Conn, m executor.Message[struct{}]) (struct{}, error) {
			panic("handler exploded")
		})
	if err == nil || !strings.Contains(err.Error(), "worker panic") {
		t.Fatalf("expected recovered panic error, got %v", err)
	}

	// The pool keeps serving and the connection was released.
	podcast := testsupport.SeedPodcast(t, st)
	got, err := executor.Submit(context.Background(), pool, executor.NewMessage(logging.NewNop(), podcast.ID),
		func(ctx context.Context, conn *store.Conn, m executor.Message[int64]) (*store.Podcast, error) {
			return conn.PodcastByID(ctx, m.Params)
		})
	if err != nil {
		t.Fatalf("Submit after panic failed: %v", err)
	}
	if got == nil || got.ID != podcast.ID {
		t.Fatalf("unexpected result after panic: %#v", got)
	}
}

func TestSubmitAfterStopReturnsCanceled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1))
	st := testsupport.MustOpenStore(t, cfg)
	conns := testsupport.MustOpenPool(t, cfg, st)
	pool := executor.NewPool(conns, 1, logging.NewNop())
	pool.Stop()

	_, err := executor.Submit(context.Background(), pool, executor.NewMessage(logging.NewNop(), struct{}{}),
		func(ctx context.Context, conn *store.Conn, m executor.Message[struct{}]) (struct{}, error) {
			return struct{}{}, nil
		})
	if !errors.Is(err, executor.ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestSubmitHonorsContextWhileQueued(t *testing.T) {
	pool, _ := newTestPool(t, 1)

	started := make(chan struct{})
	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = executor.Submit(context.Background(), pool, executor.NewMessage(logging.NewNop(), struct{}{}),
			func(ctx context.Context, conn *store.Conn, m executor.Message[struct{}]) (struct{}, error) {
				close(started)
				<-block
				return struct{}{}, nil
			})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := executor.Submit(ctx, pool, executor.NewMessage(logging.NewNop(), struct{}{}),
		func(ctx context.Context, conn *store.Conn, m executor.Message[struct{}]) (struct{}, error) {
			return struct{}{}, nil
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}

	close(block)
	wg.Wait()
}
