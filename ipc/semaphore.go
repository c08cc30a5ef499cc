package ipc

import "kexec-go/ob"

// Semaphore is a dispatch header plus a count and a max. Acquire
// decrements the count; Release adds n, clamped to max, and wakes up to
// n waiters.
type Semaphore struct {
	hdr   *ob.DispatchHeader
	Count int
	Max   int
}

// NewSemaphore creates a semaphore with the given initial count and max.
func NewSemaphore(initial, max int) *Semaphore {
	return &Semaphore{
		hdr:   ob.NewDispatchHeader(ob.TypeSemaphore, false, initial > 0),
		Count: initial,
		Max:   max,
	}
}

func (s *Semaphore) TypeTag() ob.ObjectType     { return ob.TypeSemaphore }
func (s *Semaphore) Header() *ob.DispatchHeader { return s.hdr }

// Acquire decrements the count for a successful wait.
func (s *Semaphore) Acquire(pid int) (abandoned bool) {
	if s.Count > 0 {
		s.Count--
	}
	if s.Count == 0 {
		s.hdr.Signaled = false
	}
	return false
}

// Release adds n to the count, clamped to Max, and reports how many
// waiters may now be woken (up to n, one at a time by the caller driving
// wait.Dispatcher.Notify in a loop).
func (s *Semaphore) Release(n int) int {
	before := s.Count
	s.Count += n
	if s.Count > s.Max {
		s.Count = s.Max
	}
	if s.Count > 0 {
		s.hdr.Signaled = true
	}
	return s.Count - before
}
