package intake

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/certen/sumeragi-core/pkg/wire"
)

func TestSubmitRunsEveryEvent(t *testing.T) {
	var processed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(5)
	p := New(2, 5, func(ctx context.Context, e *wire.ConsensusEvent) {
		processed.Add(1)
		wg.Done()
	})

	for i := 0; i < 5; i++ {
		if err := p.Submit(context.Background(), &wire.ConsensusEvent{Order: uint64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	p.Shutdown()

	if got := processed.Load(); got != 5 {
		t.Fatalf("processed = %d, want 5", got)
	}
}

func TestSubmitBoundsConcurrency(t *testing.T) {
	const workers = 3
	var inFlight atomic.Int64
	var maxSeen atomic.Int64
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	p := New(workers, workers, func(ctx context.Context, e *wire.ConsensusEvent) {
		n := inFlight.Add(1)
		for {
			cur := maxSeen.Load()
			if n <= cur || maxSeen.CompareAndSwap(cur, n) {
				break
			}
		}
		wg.Done()
		<-release
		inFlight.Add(-1)
	})

	for i := 0; i < workers; i++ {
		if err := p.Submit(context.Background(), &wire.ConsensusEvent{Order: uint64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait() // all `workers` handlers are now running concurrently

	if depth := p.QueueDepth(); depth != workers {
		t.Fatalf("QueueDepth() = %d, want %d while all workers are busy", depth, workers)
	}

	close(release)
	p.Shutdown()

	if got := maxSeen.Load(); got > workers {
		t.Fatalf("observed %d concurrent handlers, want at most %d", got, workers)
	}
}

func TestSubmitBlocksWhenQueueIsFull(t *testing.T) {
	release := make(chan struct{})
	p := New(1, 1, func(ctx context.Context, e *wire.ConsensusEvent) {
		<-release
	})

	// First submission occupies the single worker; second fills the single
	// queue slot behind it.
	if err := p.Submit(context.Background(), &wire.ConsensusEvent{Order: 0}); err != nil {
		t.Fatal(err)
	}
	if err := p.Submit(context.Background(), &wire.ConsensusEvent{Order: 1}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Submit(ctx, &wire.ConsensusEvent{Order: 2}); err == nil {
		t.Fatal("expected a third submission to block until the queue drains")
	}

	close(release)
	p.Shutdown()
}

func TestShutdownDrainsInFlightWork(t *testing.T) {
	var completed atomic.Int64
	started := make(chan struct{}, 3)
	release := make(chan struct{})

	p := New(3, 3, func(ctx context.Context, e *wire.ConsensusEvent) {
		started <- struct{}{}
		<-release
		completed.Add(1)
	})

	for i := 0; i < 3; i++ {
		if err := p.Submit(context.Background(), &wire.ConsensusEvent{Order: uint64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		<-started
	}

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Shutdown returned before in-flight handlers finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done

	if got := completed.Load(); got != 3 {
		t.Fatalf("completed = %d, want 3", got)
	}
}
