package kernel

import (
	"time"

	"kexec-go/hooks"
	"kexec-go/ipc"
	"kexec-go/logging"
	"kexec-go/persist"
	"kexec-go/process"
	"kexec-go/wait"
)

// ProcessSpawn implements process_spawn: allocates a pid, issues its
// synapse token, joins its own (singleton) process group, and runs the
// PreSpawn/PostSpawn lifecycle hooks.
func (k *Kernel) ProcessSpawn(parentPid int, ring process.Ring, priority int, args []string, env map[string]string) (*process.Descriptor, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.hooks.Run(hooks.PreSpawn, hooks.Event{Pid: 0, ParentPid: parentPid})

	d := k.procs.Spawn(parentPid, ring, priority)
	d.SynapseToken = k.synapse.Issue(d.Pid)
	d.Args = args
	for key, val := range env {
		d.Env[key] = val
	}
	k.groups.Join(d.Pid, d.Pid)
	k.signals[d.Pid] = ipc.NewSignalQueue()
	_ = k.procs.Resume(d.Pid)

	k.hooks.Run(hooks.PostSpawn, hooks.Event{Pid: d.Pid, ParentPid: parentPid})
	k.log(logging.LevelProc, d.Pid, "process spawned")
	return d, nil
}

// ProcessKill implements process_kill: marks the process dead, releases
// every resource it held, and notifies its parent with SIGCHLD.
func (k *Kernel) ProcessKill(pid, exitCode int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.killLocked(pid, exitCode)
}

func (k *Kernel) killLocked(pid, exitCode int) error {
	d, err := k.procs.Get(pid)
	if err != nil {
		return err
	}
	if d.State == process.StateDead {
		return nil
	}

	uptime := k.clk.Now()
	if err := k.procs.Kill(pid, exitCode); err != nil {
		return err
	}
	// Unpark anything blocked in this pid's own syscall (wait, pipe,
	// mqueue) before tearing down its handles, so the parked goroutine
	// observes a closed handle table on retry instead of hanging forever.
	if ch, ok := k.wakers[pid]; ok {
		ch <- wakeResult{result: wait.Failed}
		delete(k.wakers, pid)
	}
	if targets, ok := k.waitTargets[pid]; ok {
		k.waits.CancelWait(pid, targets)
		delete(k.waitTargets, pid)
	}
	if cleanup, ok := k.onTimeout[pid]; ok {
		cleanup()
		delete(k.onTimeout, pid)
	}
	k.waits.CancelTimeout(pid)

	k.objects.CloseAllHandles(pid)
	k.synapse.Forget(pid)
	k.groups.Leave(pid)
	k.override.ReleaseAll(pid)
	delete(k.signals, pid)

	for _, m := range k.mutexes {
		if m.Owner == pid {
			m.MarkOwnerDead()
		}
	}

	if k.store != nil {
		_ = k.store.RecordExit(persist.ExitRecord{
			Pid:        pid,
			ExitCode:   exitCode,
			Uptime:     uptime,
			RecordedAt: time.Now(),
		})
	}

	k.hooks.Run(hooks.ChildDeath, hooks.Event{Pid: pid, ParentPid: d.ParentPid, ExitCode: exitCode, Uptime: uptime})
	if parent, perr := k.procs.Get(d.ParentPid); perr == nil && parent.State != process.StateDead {
		if q, ok := k.signals[d.ParentPid]; ok {
			q.Enqueue(ipc.SIGCHLD)
		}
	}
	k.hooks.Run(hooks.PostExit, hooks.Event{Pid: pid, ExitCode: exitCode, Uptime: uptime})
	k.log(logging.LevelProc, pid, "process killed")
	return nil
}

// ProcessYield implements process_yield: accounts the elapsed slice,
// delivers any pending signals at this well-defined delivery point, and
// hands control to the scheduler's next priority-ordered pick (spec §4.3),
// not back to the caller. The caller's own goroutine keeps running
// regardless of which pid the kernel's bookkeeping now calls Running.
func (k *Kernel) ProcessYield(pid int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.procs.Yield(pid, false); err != nil {
		return err
	}
	k.drainSignalsLocked(pid)
	k.resumeNextReadyLocked()
	return nil
}

// ProcessList implements process_list.
func (k *Kernel) ProcessList() []*process.Descriptor {
	return k.procs.List()
}

// ProcessGetRing implements process_get_ring.
func (k *Kernel) ProcessGetRing(pid int) (process.Ring, error) {
	d, err := k.procs.Get(pid)
	if err != nil {
		return 0, err
	}
	return d.Ring, nil
}

// ProcessCPUStats implements process_cpu_stats.
func (k *Kernel) ProcessCPUStats(pid int) (process.CPUStats, error) {
	d, err := k.procs.Get(pid)
	if err != nil {
		return process.CPUStats{}, err
	}
	return d.CPU, nil
}

// SetProcessGroup implements set_process_group.
func (k *Kernel) SetProcessGroup(pid, pgid int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, err := k.procs.Get(pid)
	if err != nil {
		return err
	}
	d.Group = pgid
	k.groups.Join(pid, pgid)
	return nil
}

