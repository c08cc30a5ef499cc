package wait

import (
	"sync"

	"kexec-go/clock"
	"kexec-go/kerrors"
	"kexec-go/ob"
)

// multiWaiter is the dispatcher-side bookkeeping for a process blocked in
// a multi-object wait.
type multiWaiter struct {
	targets []Target
	all     bool
}

// timeoutEntry is one row of the central wait-timeout registry: a
// deadline plus every dispatch header the waiter is registered on, so
// expiry can remove it from all of them in one pass.
type timeoutEntry struct {
	deadline float64
	headers  []*ob.DispatchHeader
}

// Dispatcher is the Wait Dispatcher: it owns the wait-timeout registry
// and the bookkeeping needed to resolve multi-object waits across
// several dispatch headers. The headers themselves live inside the
// object bodies the caller resolves through the Object Manager;
// Dispatcher only orchestrates waiter-list membership and timeouts.
type Dispatcher struct {
	mu       sync.Mutex
	clk      clock.Source
	timeouts map[int]*timeoutEntry
	multi    map[int]*multiWaiter
}

// NewDispatcher builds an empty wait dispatcher.
func NewDispatcher(clk clock.Source) *Dispatcher {
	return &Dispatcher{
		clk:      clk,
		timeouts: make(map[int]*timeoutEntry),
		multi:    make(map[int]*multiWaiter),
	}
}

// WaitSingle resolves one target. If it is already signaled, performs
// the type-specific acquire and reports an immediate result. Otherwise
// it enqueues the caller on the target's waiter list and reports that
// the caller must block.
func (d *Dispatcher) WaitSingle(pid int, target Target) (result Result, blocked bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := target.Body.Header()
	if h.Signaled {
		abandoned := target.Body.Acquire(pid)
		if !h.ManualReset {
			h.Signaled = false
		}
		if abandoned {
			return Abandoned, false
		}
		return WAIT0, false
	}
	h.Enqueue(pid, 0)
	return Failed, true
}

// WaitMulti resolves every target atomically: if any is non-waitable the
// caller passes already-resolved Acquirers, so that check is assumed
// done by the caller. For any-mode, the first signaled target wins. For
// all-mode, every target must be signaled.
func (d *Dispatcher) WaitMulti(pid int, targets []Target, all bool) (result Result, index int, blocked bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if all {
		for _, t := range targets {
			if !t.Body.Header().Signaled {
				d.enqueueMultiLocked(pid, targets, all)
				return Failed, -1, true
			}
		}
		for i, t := range targets {
			h := t.Body.Header()
			t.Body.Acquire(pid)
			if !h.ManualReset {
				h.Signaled = false
			}
			_ = i
		}
		return WAIT0, 0, false
	}

	for i, t := range targets {
		h := t.Body.Header()
		if h.Signaled {
			abandoned := t.Body.Acquire(pid)
			if !h.ManualReset {
				h.Signaled = false
			}
			if abandoned {
				return Abandoned, i, false
			}
			return WaitIndex(i), i, false
		}
	}
	d.enqueueMultiLocked(pid, targets, all)
	return Failed, -1, true
}

func (d *Dispatcher) enqueueMultiLocked(pid int, targets []Target, all bool) {
	d.multi[pid] = &multiWaiter{targets: targets, all: all}
	for i, t := range targets {
		t.Body.Header().Enqueue(pid, i)
	}
}

// Notify is called by an IPC body's signal operation (Set, Release, ...)
// after it flips a header's Signaled bit. mode controls how many
// waiters are considered: auto-reset headers wake exactly one (the
// oldest), manual-reset headers wake every queued waiter. Returns the
// pids woken and, for each, the result to deliver.
//
// For a woken pid that is actually blocked in a multi-object wait, the
// any-mode case is resolved here (acquire just this target, remove the
// pid from every other target's waiter list); the all-mode case is
// resolved here too: if every other target is already signaled, all
// targets are acquired at once, otherwise the outcome is Pending.
func (d *Dispatcher) Notify(h *ob.DispatchHeader, acquire func(pid int) (abandoned bool)) []NotifyOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	var outcomes []NotifyOutcome
	if h.ManualReset {
		waiters := h.Waiters
		h.Waiters = nil
		for _, w := range waiters {
			outcomes = append(outcomes, d.resolveWakeLocked(w, h, acquire))
		}
		return outcomes
	}

	w, ok := h.PopFront()
	if !ok {
		return nil
	}
	outcomes = append(outcomes, d.resolveWakeLocked(w, h, acquire))
	return outcomes
}

// NotifyOutcome describes one process woken by a Notify call.
type NotifyOutcome struct {
	Pid       int
	Result    Result
	Index     int
	Abandoned bool
	// Pending is true when the woken process is in an all-mode
	// multi-wait that is not yet fully satisfied; the kernel must leave
	// it sleeping and re-check on the next target signal.
	Pending bool
}

func (d *Dispatcher) resolveWakeLocked(w ob.WaiterEntry, h *ob.DispatchHeader, acquire func(pid int) (abandoned bool)) NotifyOutcome {
	mw, isMulti := d.multi[w.Pid]
	if !isMulti {
		abandoned := acquire(w.Pid)
		if !h.ManualReset {
			h.Signaled = false
		}
		d.cancelTimeoutLocked(w.Pid)
		if abandoned {
			return NotifyOutcome{Pid: w.Pid, Result: Abandoned}
		}
		return NotifyOutcome{Pid: w.Pid, Result: WAIT0}
	}

	if !mw.all {
		d.removeFromOtherTargetsLocked(w.Pid, mw.targets, h)
		delete(d.multi, w.Pid)
		abandoned := acquire(w.Pid)
		if !h.ManualReset {
			h.Signaled = false
		}
		d.cancelTimeoutLocked(w.Pid)
		if abandoned {
			return NotifyOutcome{Pid: w.Pid, Result: Abandoned, Index: w.WaitKey, Abandoned: true}
		}
		return NotifyOutcome{Pid: w.Pid, Result: WaitIndex(w.WaitKey), Index: w.WaitKey}
	}

	for _, t := range mw.targets {
		if t.Body != nil && t.Body.Header() != h && !t.Body.Header().Signaled {
			return NotifyOutcome{Pid: w.Pid, Pending: true}
		}
	}
	for _, t := range mw.targets {
		th := t.Body.Header()
		t.Body.Acquire(w.Pid)
		if !th.ManualReset {
			th.Signaled = false
		}
		th.Dequeue(w.Pid)
	}
	delete(d.multi, w.Pid)
	d.cancelTimeoutLocked(w.Pid)
	return NotifyOutcome{Pid: w.Pid, Result: WAIT0}
}

func (d *Dispatcher) removeFromOtherTargetsLocked(pid int, targets []Target, except *ob.DispatchHeader) {
	for _, t := range targets {
		if t.Body.Header() != except {
			t.Body.Header().Dequeue(pid)
		}
	}
}

// CancelWait removes pid from every waiter list it is currently
// registered on (single or multi), e.g. when a signal interrupts a
// sleeping process (IO_COMPLETION).
func (d *Dispatcher) CancelWait(pid int, targets []Target) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range targets {
		t.Body.Header().Dequeue(pid)
	}
	delete(d.multi, pid)
	d.cancelTimeoutLocked(pid)
}

// RegisterTimeout records pid's wait deadline in the central registry.
// timeoutMs < 0 means "no timeout" and is a no-op (wait indefinitely);
// timeoutMs == 0 is a non-blocking probe and is the caller's
// responsibility to have already resolved before calling this.
func (d *Dispatcher) RegisterTimeout(pid int, timeoutMs int64, headers []*ob.DispatchHeader) bool {
	if timeoutMs < 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	deadline := d.clk.Now() + float64(timeoutMs)/1000.0
	d.timeouts[pid] = &timeoutEntry{deadline: deadline, headers: headers}
	return true
}

// CancelTimeout removes pid's registry entry, e.g. once it wakes via
// Notify before its deadline.
func (d *Dispatcher) CancelTimeout(pid int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelTimeoutLocked(pid)
}

func (d *Dispatcher) cancelTimeoutLocked(pid int) {
	delete(d.timeouts, pid)
}

// ExpireTimeouts is consulted once per tick. Every entry whose deadline
// has elapsed is removed from the registry and from every waiter list
// it was enqueued on; the returned pids must be woken with a Timeout
// result by the caller.
func (d *Dispatcher) ExpireTimeouts(now float64) []int {
	d.mu.Lock()
	defer d.mu.Unlock()

	var expired []int
	for pid, entry := range d.timeouts {
		if now < entry.deadline {
			continue
		}
		for _, h := range entry.headers {
			h.Dequeue(pid)
		}
		delete(d.multi, pid)
		delete(d.timeouts, pid)
		expired = append(expired, pid)
	}
	return expired
}

// NotWaitable is returned by callers (not Dispatcher itself) when a
// resolved object lacks a dispatch header; kept here so call sites share
// one sentinel reference.
var NotWaitable = kerrors.ErrNotWaitableObject
