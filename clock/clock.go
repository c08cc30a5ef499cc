// Package clock provides the kernel's monotonic time source (spec §4.1).
//
// Uptime is a strictly non-decreasing float64 number of seconds since the
// Source was created. Nothing in the kernel core reads the wall clock;
// Source.Now is the only time a syscall-reachable component may consult,
// which is what lets tests drive timers and wait-timeouts deterministically
// through a Fake instead of real sleeps.
package clock

import (
	"golang.org/x/sys/unix"
)

// Source is a monotonic time source.
type Source interface {
	// Now returns seconds elapsed since the Source was created. Never
	// decreases between calls.
	Now() float64
}

// monotonicSource reads CLOCK_MONOTONIC directly via golang.org/x/sys/unix,
// the same low-level syscall style the teacher lineage uses for namespace
// flags, rather than wrapping time.Now().
type monotonicSource struct {
	startSec  int64
	startNsec int64
}

// New returns a Source backed by the host's monotonic clock.
func New() Source {
	var ts unix.Timespec
	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	return &monotonicSource{startSec: int64(ts.Sec), startNsec: int64(ts.Nsec)}
}

func (m *monotonicSource) Now() float64 {
	var ts unix.Timespec
	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	sec := int64(ts.Sec) - m.startSec
	nsec := int64(ts.Nsec) - m.startNsec
	return float64(sec) + float64(nsec)/1e9
}

// Fake is a manually-advanced Source for deterministic tests. It never
// touches the host clock.
type Fake struct {
	now float64
}

// NewFake returns a Fake source starting at uptime 0.
func NewFake() *Fake {
	return &Fake{}
}

// Now implements Source.
func (f *Fake) Now() float64 {
	return f.now
}

// Advance moves the fake clock forward by delta seconds. Panics if delta
// is negative, since uptime must never decrease.
func (f *Fake) Advance(delta float64) {
	if delta < 0 {
		panic("clock: Advance called with negative delta")
	}
	f.now += delta
}
