package sumeragi

import (
	"container/heap"
	"sync"
	"time"
)

// PanicTimer is the O(1)-thread timer subsystem required by spec.md §9
// (one shared priority-queue-driven goroutine, in place of a thread per
// timer). Grounded on pkg/batch/scheduler.go's single-timer-goroutine
// lifecycle (state, stopCh, doneCh, *time.Timer), generalized here from one
// timer to many concurrently-armed keys via a min-heap on fire time.
type PanicTimer struct {
	mu    sync.Mutex
	items timerHeap
	index map[string]*timerItem

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	fire func(key string)
}

type timerItem struct {
	key    string
	fireAt time.Time
	heapIx int
}

type timerHeap []*timerItem

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].fireAt.Before(h[j].fireAt) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIx, h[j].heapIx = i, j
}
func (h *timerHeap) Push(x any) {
	item := x.(*timerItem)
	item.heapIx = len(*h)
	*h = append(*h, item)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.heapIx = -1
	*h = old[:n-1]
	return item
}

// NewPanicTimer starts the timer goroutine; fire is invoked (on the timer's
// own goroutine, never concurrently with itself) once per expiry that was
// not cancelled or superseded by a later Arm.
func NewPanicTimer(fire func(key string)) *PanicTimer {
	t := &PanicTimer{
		index: make(map[string]*timerItem),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		fire:  fire,
	}
	go t.run()
	return t
}

// Arm (re-)schedules key to fire after d. Re-arming a key that is already
// pending replaces its deadline (used by the engine's panic-cycle restart:
// spec §4.1 keeps arming the same tx.hash key each round).
func (t *PanicTimer) Arm(key string, d time.Duration) {
	t.mu.Lock()
	if existing, ok := t.index[key]; ok {
		existing.fireAt = time.Now().Add(d)
		heap.Fix(&t.items, existing.heapIx)
	} else {
		item := &timerItem{key: key, fireAt: time.Now().Add(d)}
		heap.Push(&t.items, item)
		t.index[key] = item
	}
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Cancel removes key from the schedule, the spec §5 "timer is cancelled
// implicitly by setting seen_commits_cache[tx.hash]" rule's mechanism.
func (t *PanicTimer) Cancel(key string) {
	t.mu.Lock()
	if item, ok := t.index[key]; ok {
		heap.Remove(&t.items, item.heapIx)
		delete(t.index, key)
	}
	t.mu.Unlock()
}

// Stop halts the timer goroutine. Pending keys are dropped without firing.
func (t *PanicTimer) Stop() {
	close(t.stop)
	<-t.done
}

func (t *PanicTimer) run() {
	defer close(t.done)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		t.mu.Lock()
		var sleep time.Duration
		if len(t.items) == 0 {
			sleep = time.Hour
		} else {
			sleep = time.Until(t.items[0].fireAt)
			if sleep < 0 {
				sleep = 0
			}
		}
		t.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(sleep)

		select {
		case <-t.stop:
			return
		case <-t.wake:
			continue
		case <-timer.C:
			t.fireDue()
		}
	}
}

// fireDue pops every item whose deadline has passed and invokes fire for
// each, outside the lock so fire may itself call back into Arm/Cancel.
func (t *PanicTimer) fireDue() {
	var due []*timerItem
	now := time.Now()

	t.mu.Lock()
	for len(t.items) > 0 && !t.items[0].fireAt.After(now) {
		item := heap.Pop(&t.items).(*timerItem)
		delete(t.index, item.key)
		due = append(due, item)
	}
	t.mu.Unlock()

	for _, item := range due {
		t.fire(item.key)
	}
}
