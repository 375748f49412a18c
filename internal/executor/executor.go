// Package executor bridges the concurrent HTTP layer and the synchronous
// database workers. Handlers submit a message and block until a worker has
// run it on an exclusive pool connection and replied.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"chorus/internal/logging"
	"chorus/internal/store"
)

// ErrCanceled is returned when the worker side shut down before the reply
// arrived. It is rendered as an internal error, never retried.
var ErrCanceled = errors.New("future canceled")

// Message carries everything a handler moves across the boundary: the
// request-scoped logger and prevalidated params. Params must be plain owned
// values, never live request state.
type Message[P any] struct {
	Log    *slog.Logger
	Params P
}

// NewMessage builds a message from a request-scoped logger and params.
func NewMessage[P any](log *slog.Logger, params P) Message[P] {
	return Message[P]{Log: log, Params: params}
}

// Handler runs on a worker goroutine with an exclusive database connection.
type Handler[P, R any] func(ctx context.Context, conn *store.Conn, msg Message[P]) (R, error)

type job func()

// Pool is a fixed set of worker goroutines draining a shared queue. Each
// worker handles one message at a time; there is no ordering guarantee
// across workers.
type Pool struct {
	conns  *store.Pool
	logger *slog.Logger

	jobs chan job
	quit chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewPool wires a worker pool of the given size over the connection pool.
// Call Start before submitting.
func NewPool(conns *store.Pool, size int, logger *slog.Logger) *Pool {
	p := &Pool{
		conns:  conns,
		logger: logger.With(logging.Component("executor")),
		jobs:   make(chan job),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}
	p.logger.Debug("worker pool started", logging.Int("workers", size))
	return p
}

// Stop drains the pool: workers finish their in-flight message, queued but
// unclaimed messages are severed and their submitters receive ErrCanceled.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
	close(p.done)
	p.logger.Debug("worker pool stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case run := <-p.jobs:
			run()
		}
	}
}

// Submit hands the message to a worker and blocks until the reply. The
// worker acquires an exclusive connection for the duration of the handler;
// a handler panic is recovered and reported as an internal error without
// taking the worker down.
func Submit[P, R any](ctx context.Context, p *Pool, msg Message[P], handler Handler[P, R]) (R, error) {
	type reply struct {
		result R
		err    error
	}
	replies := make(chan reply, 1)

	run := func() {
		var rep reply
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("worker panic recovered", logging.Any("panic", r))
				rep = reply{err: fmt.Errorf("worker panic: %v", r)}
			}
			replies <- rep
		}()
		conn, err := p.conns.Acquire(ctx)
		if err != nil {
			rep = reply{err: err}
			return
		}
		defer conn.Release()
		// An abandoned request must not abort an in-flight transaction;
		// handlers run to completion once a worker has picked them up.
		result, err := handler(context.WithoutCancel(ctx), conn, msg)
		rep = reply{result: result, err: err}
	}

	var zero R
	select {
	case p.jobs <- run:
	case <-p.done:
		return zero, ErrCanceled
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case rep := <-replies:
		return rep.result, rep.err
	case <-p.done:
		return zero, ErrCanceled
	}
}
