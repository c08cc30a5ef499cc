package ipc

import "kexec-go/ob"

// Timer is a dispatch header (manual-reset, initially unsignaled), an
// absolute deadline, an optional period, and an optional DPC to enqueue
// on expiry.
type Timer struct {
	hdr        *ob.DispatchHeader
	ID         uint64
	Deadline   float64
	PeriodSecs float64 // 0 means one-shot
	Active     bool
	DPCArg1    any
	DPCArg2    any
	HasDPC     bool
}

// NewTimer creates an inactive timer with a unique identifier.
func NewTimer(id uint64) *Timer {
	return &Timer{hdr: ob.NewDispatchHeader(ob.TypeTimer, true, false), ID: id}
}

func (t *Timer) TypeTag() ob.ObjectType     { return ob.TypeTimer }
func (t *Timer) Header() *ob.DispatchHeader { return t.hdr }

// Acquire is a no-op: waiting on a timer never transfers ownership, it
// only observes the signaled bit manual-reset semantics already expose.
func (t *Timer) Acquire(pid int) (abandoned bool) { return false }

// Set arms the timer: records the deadline (now + delayMs), clears the
// signaled bit, and records the optional period and DPC arguments.
func (t *Timer) Set(now float64, delayMs int64, periodMs int64, dpcArg1, dpcArg2 any, hasDPC bool) {
	t.Deadline = now + float64(delayMs)/1000.0
	t.PeriodSecs = float64(periodMs) / 1000.0
	t.Active = true
	t.hdr.Signaled = false
	t.DPCArg1, t.DPCArg2, t.HasDPC = dpcArg1, dpcArg2, hasDPC
}

// Cancel deactivates the timer without signaling it.
func (t *Timer) Cancel() {
	t.Active = false
}

// Expire signals the timer and, if periodic, re-arms immediately by
// advancing the deadline by one period (no drift correction across
// missed ticks beyond the immediate next, per spec §4.6). Returns
// whether the timer re-armed.
func (t *Timer) Expire(now float64) (rearmed bool) {
	t.hdr.Signaled = true
	if t.PeriodSecs <= 0 {
		t.Active = false
		return false
	}
	t.Deadline += t.PeriodSecs
	return true
}
