// Copyright 2025 Certen Protocol
//
// Package intake implements the bounded worker pool of spec §5: a
// fixed-size set of workers processing incoming consensus events in
// parallel, with submissions beyond the configured queue bound blocking
// the caller to apply backpressure on the transport.
//
// Grounded on pkg/batch/scheduler.go's lifecycle shape (single-purpose
// background goroutines, context-driven shutdown), generalized from one
// timer goroutine to a concurrency-bounded fan-out; the bounding itself is
// built on golang.org/x/sync/semaphore, promoted here from the teacher's
// indirect dependency to a direct one.
package intake

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/certen/sumeragi-core/pkg/wire"
)

// Handler processes a single event; pkg/sumeragi supplies this as the
// validate → execute → commit pipeline entry point (spec §4.1).
type Handler func(ctx context.Context, event *wire.ConsensusEvent)

// Pool bounds both how many events may be in flight at once (Concurrency)
// and how many more may be queued behind them (PoolWorkerQueueSize),
// spec §5's two worker-pool configuration options.
type Pool struct {
	workSem  *semaphore.Weighted // bounds concurrently-executing handlers
	queueSem *semaphore.Weighted // bounds accepted, unfinished submissions: workers running plus queueSize waiting
	handle   Handler
	wg       sync.WaitGroup
	depth    atomic.Int64
}

// New builds a pool that runs at most `workers` handlers concurrently,
// backed by a queue of depth `queueSize`.
func New(workers, queueSize int, handle Handler) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		workSem:  semaphore.NewWeighted(int64(workers)),
		queueSem: semaphore.NewWeighted(int64(workers + queueSize)),
		handle:   handle,
	}
}

// Submit enqueues event for processing, blocking while the queue is full
// (spec §5: "submissions beyond the bound block the caller to apply
// backpressure on the transport") or until ctx is cancelled.
func (p *Pool) Submit(ctx context.Context, event *wire.ConsensusEvent) error {
	if err := p.queueSem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.depth.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.queueSem.Release(1)
		defer p.depth.Add(-1)

		// The background context here, not the caller's: once accepted,
		// an event must run to completion even if the submitter's
		// request context is later cancelled (spec §5: commits are not
		// released before all in-flight work finishes). Each accepted
		// submission gets its own correlation ID (see TraceID) so a
		// handler's log lines can be tied together across the
		// queue-wait-then-run lifetime of one event.
		if err := p.workSem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer p.workSem.Release(1)

		handleCtx, _ := withTraceID(context.Background())
		p.handle(handleCtx, event)
	}()
	return nil
}

// QueueDepth reports how many submissions currently hold a queue slot
// (queued or already dispatched to a worker), for metrics.
func (p *Pool) QueueDepth() int64 {
	return p.depth.Load()
}

// Shutdown waits for every accepted event to finish running (spec §5:
// "the worker pool drains on shutdown ... no resource is released before
// all in-flight commits finish"). Callers must stop calling Submit before
// calling Shutdown.
func (p *Pool) Shutdown() {
	p.wg.Wait()
}
