// Package ipc implements the kernel's IPC primitive families: events,
// mutexes, semaphores, timers, pipes, shared sections, priority message
// queues, and process signals. Every waitable body embeds an
// ob.DispatchHeader and implements wait.Acquirer so the Wait Dispatcher
// can drive it generically.
package ipc

import "kexec-go/ob"

// Event is a dispatch-header-only waitable object. Operations: create,
// set, reset, pulse.
type Event struct {
	hdr *ob.DispatchHeader
}

// NewEvent creates an event with the given reset policy and initial
// signaled state.
func NewEvent(manualReset, initialSignaled bool) *Event {
	return &Event{hdr: ob.NewDispatchHeader(ob.TypeEvent, manualReset, initialSignaled)}
}

func (e *Event) TypeTag() ob.ObjectType     { return ob.TypeEvent }
func (e *Event) Header() *ob.DispatchHeader { return e.hdr }

// Acquire is the type-specific side effect a waiter runs on wake. Events
// carry no state to take ownership of; the Dispatcher already clears an
// auto-reset header's signaled bit, so this is a no-op.
func (e *Event) Acquire(pid int) (abandoned bool) { return false }

// Set marks the event signaled. Manual-reset events stay signaled after
// waking everyone; auto-reset events are cleared by the Dispatcher once
// a single waiter is woken (or remain signaled, for a future waiter, if
// none were queued).
func (e *Event) Set() {
	e.hdr.Signaled = true
}

// Reset clears the signaled bit unconditionally.
func (e *Event) Reset() {
	e.hdr.Signaled = false
}

// Pulse sets the signaled bit; EndPulse clears it again. Waiters not
// currently queued miss the pulse — callers must drive the wake path
// (wait.Dispatcher.Notify) between Pulse and EndPulse for this to have
// any observable effect; Pulse itself only prepares the bit.
func (e *Event) Pulse() {
	e.hdr.Signaled = true
}

// EndPulse clears the signaled bit after the wake path has run, so a
// process that was not waiting does not observe it at a later wait.
func (e *Event) EndPulse() {
	e.hdr.Signaled = false
}
