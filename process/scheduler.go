package process

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"kexec-go/clock"
	"kexec-go/kconfig"
	"kexec-go/kerrors"
)

// Table is the process table and scheduler. It owns every
// process descriptor and the "currently running" cursor; the kernel
// calls into it from within its own single executor lock, but Table
// carries its own mutex so it remains independently testable.
type Table struct {
	mu      sync.Mutex
	procs   map[int]*Descriptor
	nextPid int
	running int // pid of the currently running process, 0 if none
	cfg     kconfig.Config
	clk     clock.Source
	limiter *rate.Limiter
}

// NewTable builds an empty process table. clk drives all CPU accounting
// and watchdog comparisons; pass a clock.Fake in tests to control time
// deterministically.
func NewTable(cfg kconfig.Config, clk clock.Source) *Table {
	cfg = cfg.WithDefaults()
	return &Table{
		procs:   make(map[int]*Descriptor),
		nextPid: 1,
		cfg:     cfg,
		clk:     clk,
		limiter: rate.NewLimiter(rate.Every(cfg.TickPeriod), 1),
	}
}

// Spawn allocates a new pid and descriptor in the ready state.
func (t *Table) Spawn(parentPid int, ring Ring, priority int) *Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	pid := t.nextPid
	t.nextPid++
	d := NewDescriptor(pid, parentPid, ring, priority)
	t.procs[pid] = d
	return d
}

// Get returns the descriptor for pid.
func (t *Table) Get(pid int) (*Descriptor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.procs[pid]
	if !ok {
		return nil, kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "process_get", pid)
	}
	return d, nil
}

// List returns every descriptor, ordered by pid.
func (t *Table) List() []*Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Descriptor, 0, len(t.procs))
	for _, d := range t.procs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pid < out[j].Pid })
	return out
}

// Kill transitions pid to dead and records its exit code.
func (t *Table) Kill(pid, exitCode int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.procs[pid]
	if !ok {
		return kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "process_kill", pid)
	}
	d.State = StateDead
	d.ExitCode = exitCode
	if t.running == pid {
		t.running = 0
	}
	return nil
}

// Reap removes a dead process's descriptor entirely, once its parent has
// collected the exit status.
func (t *Table) Reap(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, pid)
}

// Resume marks pid running and stamps its resume uptime for slice
// accounting (spec §4.3: "on each resume, note the uptime").
func (t *Table) Resume(pid int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.procs[pid]
	if !ok {
		return kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "process_resume", pid)
	}
	d.State = StateRunning
	d.resumedAt = t.clk.Now()
	d.CPU.Resumes++
	t.running = pid
	return nil
}

// Yield accounts the elapsed slice for the running process and returns
// it to Ready. involuntary is true for a watchdog/quantum-forced yield.
func (t *Table) Yield(pid int, involuntary bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.procs[pid]
	if !ok {
		return kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "process_yield", pid)
	}
	t.accountSliceLocked(d)
	if d.State == StateRunning {
		d.State = StateReady
	}
	if involuntary {
		d.CPU.Preemptions++
	}
	if t.running == pid {
		t.running = 0
	}
	return nil
}

func (t *Table) accountSliceLocked(d *Descriptor) {
	now := t.clk.Now()
	slice := now - d.resumedAt
	if slice < 0 {
		slice = 0
	}
	d.CPU.Accumulated += slice
	d.CPU.LastSlice = slice
	if slice > d.CPU.MaxSlice {
		d.CPU.MaxSlice = slice
	}
}

// CheckpointResult tells the caller what a preemption checkpoint decided.
type CheckpointResult int

const (
	ContinueRunning CheckpointResult = iota
	QuantumExceeded
	WatchdogStrike
	WatchdogKill
)

// Checkpoint implements spec §4.3's checkpoint rule: compare the running
// process's current slice to the quantum; if exceeded, force a yield; if
// the slice also exceeds the watchdog threshold, record a strike, and
// once the strike limit is hit, signal the caller to kill the process.
func (t *Table) Checkpoint(pid int) CheckpointResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.procs[pid]
	if !ok || d.State != StateRunning {
		return ContinueRunning
	}
	if !d.Preemptible() {
		return ContinueRunning
	}
	elapsed := t.clk.Now() - d.resumedAt
	if elapsed < t.cfg.Quantum.Seconds() {
		return ContinueRunning
	}

	result := QuantumExceeded
	if elapsed >= t.cfg.WatchdogThreshold().Seconds() {
		d.CPU.WatchdogStrikes++
		result = WatchdogStrike
		if d.CPU.WatchdogStrikes >= t.cfg.WatchdogStrikeLimit {
			result = WatchdogKill
		}
	}
	return result
}

// NextReady selects the ready process with the lowest priority number,
// lowest pid first among equal priorities. It keeps no rotation cursor,
// so equal-priority processes are not taken in turn: the lowest pid is
// picked again whenever it is ready. Returns nil if no process is ready.
func (t *Table) NextReady() *Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()

	var candidates []*Descriptor
	for _, d := range t.procs {
		if d.State == StateReady {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].Pid < candidates[j].Pid
	})
	return candidates[0]
}

// Sleep transitions pid to sleeping with the given reason.
func (t *Table) Sleep(pid int, reason SleepReason) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.procs[pid]
	if !ok {
		return kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "process_sleep", pid)
	}
	t.accountSliceLocked(d)
	d.State = StateSleeping
	d.SleepReason = reason
	if t.running == pid {
		t.running = 0
	}
	return nil
}

// Wake transitions a sleeping or stopped process back to ready.
func (t *Table) Wake(pid int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.procs[pid]
	if !ok {
		return kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "process_wake", pid)
	}
	if d.State == StateDead {
		return nil
	}
	d.State = StateReady
	d.SleepReason = SleepNone
	d.MultiWait = nil
	return nil
}

// Stop transitions pid to stopped (SIGTSTP/SIGSTOP).
func (t *Table) Stop(pid int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.procs[pid]
	if !ok {
		return kerrors.WrapWithPid(kerrors.ErrProcessGone, kerrors.ErrNoSuchProcess, "process_stop", pid)
	}
	d.State = StateStopped
	return nil
}

// WaitForTick blocks the caller until the tick-driver's rate limiter
// allows another tick. Used by the scheduler's Run loop so the "each
// tick" cadence of spec §4.3 has a concrete, backpressure-aware driver
// instead of a bare time.Sleep.
func (t *Table) WaitForTick(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
