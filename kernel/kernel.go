// Package kernel wires every subsystem package into the single owned
// state structure spec §9 calls for: one mutex serializes all mutation
// of the process table, the OB namespace, handle tables, waiter lists,
// the timer list, the DPC queue, the override table, and the
// wait-timeout registry. Blocking syscalls are modeled as an ordinary Go
// call on the caller's own goroutine that parks on a per-process
// channel while Kernel.mu is released, and is resumed by whichever wake
// path (Set, Release, Expire, signal delivery) sends to that channel
// under the same lock — the single-executor model of spec §5 expressed
// with goroutines standing in for cooperative tasks.
package kernel

import (
	"sync"

	"kexec-go/clock"
	"kexec-go/hooks"
	"kexec-go/ipc"
	"kexec-go/kconfig"
	"kexec-go/kerrors"
	"kexec-go/logging"
	"kexec-go/ob"
	"kexec-go/override"
	"kexec-go/persist"
	"kexec-go/process"
	"kexec-go/synapse"
	"kexec-go/vfs"
	"kexec-go/wait"
)

// Kernel owns every subsystem and is the only type outside them that
// ever touches more than one at once.
type Kernel struct {
	mu sync.Mutex

	cfg kconfig.Config
	clk clock.Source

	objects  *ob.Manager
	synapse  *synapse.Registry
	procs    *process.Table
	groups   *process.GroupIndex
	dpcs     *process.DPCQueue
	waits    *wait.Dispatcher
	vfs      *vfs.Router
	override *override.Bus
	ring     *logging.Ring
	store    *persist.Store
	hooks    *hooks.Registry

	signals     map[int]*ipc.SignalQueue
	wakers      map[int]chan wakeResult
	waitTargets map[int][]wait.Target // pid's current blocked-on targets, for signal interruption
	onTimeout   map[int]func()        // cleanup run when pid's registered timeout fires, for waiters the dispatch-header model doesn't own (pipes, mqueues)
	mutexes     []*ipc.Mutex          // every mutex ever created, for owner-death sweep on kill
	timers      []*ipc.Timer          // every timer ever created, for the tick loop's expiry sweep

	nextTimerID uint64
}

// wakeResult is delivered to a parked caller's channel by whichever wake
// path resolves its block. signaled marks a wake caused by an arriving
// signal rather than the condition the caller was actually blocked on —
// pipe and message-queue retry loops must not re-attempt their
// operation in that case, only wait syscalls translate it to
// IO_COMPLETION.
type wakeResult struct {
	result   wait.Result
	index    int
	signaled bool
}

// New builds a kernel with fresh, empty subsystems. dbPath selects the
// diagnostic persistence file; pass "" to run without persistence
// (tests typically do).
func New(cfg kconfig.Config, clk clock.Source, dbPath string) (*Kernel, error) {
	cfg = cfg.WithDefaults()
	if clk == nil {
		clk = clock.New()
	}

	k := &Kernel{
		cfg:      cfg,
		clk:      clk,
		objects:  ob.NewManager(cfg),
		synapse:  synapse.NewRegistry(cfg),
		procs:    process.NewTable(cfg, clk),
		groups:   process.NewGroupIndex(),
		dpcs:     process.NewDPCQueue(cfg),
		waits:    wait.NewDispatcher(clk),
		vfs:      vfs.NewRouter(),
		override: override.NewBus(),
		ring:     logging.NewRing(cfg.DmesgCapacity, logging.Default()),
		hooks:    hooks.NewRegistry(),
		signals:     make(map[int]*ipc.SignalQueue),
		wakers:      make(map[int]chan wakeResult),
		waitTargets: make(map[int][]wait.Target),
		onTimeout:   make(map[int]func()),
	}

	logging.SetActiveRing(k.ring, clk)

	if dbPath != "" {
		store, err := persist.Open(dbPath)
		if err != nil {
			return nil, err
		}
		k.store = store
		if snapshot, err := store.LoadDmesgSnapshot(); err == nil {
			for _, e := range snapshot {
				k.ring.Log(e.Uptime, e.Level, e.Pid, e.Text)
			}
		}
	}

	return k, nil
}

// Close flushes diagnostics to persistence, if configured.
func (k *Kernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.store == nil {
		return nil
	}
	if err := k.store.SaveDmesgSnapshot(k.ring.Read(0, 0, "")); err != nil {
		return err
	}
	return k.store.Close()
}

// log appends a kernel message ring entry at the current uptime.
func (k *Kernel) log(level logging.Level, pid int, text string) {
	k.ring.Log(k.clk.Now(), level, pid, text)
}

// park registers a wake channel for pid, releases the kernel lock, and
// blocks the calling goroutine until resumed. The caller must hold k.mu
// on entry; it is re-acquired before park returns.
func (k *Kernel) park(pid int) wakeResult {
	ch := make(chan wakeResult, 1)
	k.wakers[pid] = ch
	k.mu.Unlock()
	res := <-ch
	k.mu.Lock()
	return res
}

// wake delivers a result to pid's parked goroutine, if any. Must be
// called with k.mu held.
func (k *Kernel) wake(pid int, res wakeResult) {
	if ch, ok := k.wakers[pid]; ok {
		ch <- res
		delete(k.wakers, pid)
	}
}

// resumeAfterBlockLocked transitions a process straight from sleeping
// back to running: in the single-executor model there is no separate
// ready queue to wait in, the parked goroutine resumes the instant its
// block is resolved, so Wake and Resume happen together.
func (k *Kernel) resumeAfterBlockLocked(pid int) {
	_ = k.procs.Wake(pid)
	_ = k.procs.Resume(pid)
}

// resumeNextReadyLocked consults the scheduler for the next ready
// process (see process.Table.NextReady) and resumes it. Called
// whenever a process leaves Running voluntarily or under quantum/
// watchdog preemption, so Ready never just sits there un-scheduled.
func (k *Kernel) resumeNextReadyLocked() {
	if next := k.procs.NextReady(); next != nil {
		_ = k.procs.Resume(next.Pid)
	}
}

// requireRing0or1 is the common privilege gate for dmesg_clear and
// syscall_override (through requireRing0or1Pid). dump_directory applies
// the same ring 0/1 rule inside ob.Manager.DumpDirectory.
func requireRing0or1(ring process.Ring) error {
	if ring != process.Ring0 && ring != process.Ring1 {
		return kerrors.New(kerrors.ErrAccessDenied, "privilege_check", "caller ring must be 0 or 1")
	}
	return nil
}
