package process

import (
	"sync"

	"kexec-go/kconfig"
	"kexec-go/logging"
)

// DPC is a deferred procedure call: a callback plus up to two arguments,
// queued by a wake path (typically a timer expiry) and drained by the
// scheduler's tick loop.
type DPC struct {
	ID       uint64
	Callback func(arg1, arg2 any)
	Arg1     any
	Arg2     any
}

// DPCQueue is a bounded FIFO of pending DPCs. The scheduler drains up to
// a fixed cap per tick to keep a DPC burst from starving ready
// processes (spec §4.9).
type DPCQueue struct {
	mu      sync.Mutex
	items   []DPC
	nextID  uint64
	drainCap int
}

// NewDPCQueue builds an empty DPC queue with the configured per-tick
// drain cap.
func NewDPCQueue(cfg kconfig.Config) *DPCQueue {
	cfg = cfg.WithDefaults()
	return &DPCQueue{drainCap: cfg.DPCDrainCap}
}

// Enqueue appends a DPC and returns a cancellation id.
func (q *DPCQueue) Enqueue(cb func(arg1, arg2 any), arg1, arg2 any) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	id := q.nextID
	q.items = append(q.items, DPC{ID: id, Callback: cb, Arg1: arg1, Arg2: arg2})
	return id
}

// Cancel removes a pending DPC by id, if it has not yet drained.
func (q *DPCQueue) Cancel(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, d := range q.items {
		if d.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Drain runs up to the configured cap of queued DPCs, in FIFO order.
// Callback panics are recovered and logged, never propagated, per spec
// §4.9 ("callback failures are logged but not propagated").
func (q *DPCQueue) Drain() int {
	q.mu.Lock()
	n := len(q.items)
	if n > q.drainCap {
		n = q.drainCap
	}
	batch := append([]DPC(nil), q.items[:n]...)
	q.items = q.items[n:]
	q.mu.Unlock()

	for _, d := range batch {
		runDPC(d)
	}
	return len(batch)
}

func runDPC(d DPC) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("dpc callback panicked", "dpc_id", d.ID, "panic", r)
		}
	}()
	if d.Callback != nil {
		d.Callback(d.Arg1, d.Arg2)
	}
}

// Len reports the number of pending DPCs.
func (q *DPCQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
