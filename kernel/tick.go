package kernel

import (
	"context"

	"kexec-go/hooks"
	"kexec-go/ipc"
	"kexec-go/logging"
	"kexec-go/process"
	"kexec-go/wait"
)

// Tick runs one scheduler pass: expire timed-out waits, fire due
// timers, drain the DPC queue, and checkpoint every running process for
// quantum/watchdog enforcement (spec §4.3, §4.6, §4.9).
func (k *Kernel) Tick() {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.clk.Now()

	for _, pid := range k.waits.ExpireTimeouts(now) {
		if cleanup, ok := k.onTimeout[pid]; ok {
			cleanup()
			delete(k.onTimeout, pid)
		}
		delete(k.waitTargets, pid)
		k.resumeAfterBlockLocked(pid)
		k.wake(pid, wakeResult{result: wait.Timeout})
	}

	for _, t := range k.timers {
		if !t.Active || now < t.Deadline {
			continue
		}
		t.Expire(now)
		k.wakeOutcomes(k.waits.Notify(t.Header(), t.Acquire))
		if t.HasDPC {
			k.dpcs.Enqueue(func(arg1, arg2 any) {
				k.log(logging.LevelSched, 0, "timer dpc fired")
			}, t.DPCArg1, t.DPCArg2)
		}
		k.log(logging.LevelSched, 0, "timer expired")
	}

	k.dpcs.Drain()

	for _, d := range k.procs.List() {
		if d.State != process.StateRunning {
			continue
		}
		result := k.procs.Checkpoint(d.Pid)
		if result == process.WatchdogStrike || result == process.WatchdogKill {
			k.hooks.Run(hooks.WatchdogStrike, hooks.Event{Pid: d.Pid, Ring: int(d.Ring), Strikes: d.CPU.WatchdogStrikes})
		}
		switch result {
		case process.QuantumExceeded:
			_ = k.procs.Yield(d.Pid, true)
			k.resumeNextReadyLocked()
		case process.WatchdogStrike:
			_ = k.procs.Yield(d.Pid, true)
			k.resumeNextReadyLocked()
			if q, ok := k.signals[d.Pid]; ok {
				q.Enqueue(ipc.SIGTERM)
				k.drainSignalsLocked(d.Pid)
			}
		case process.WatchdogKill:
			_ = k.killLocked(d.Pid, -int(ipc.SIGKILL))
		}
	}
}

// Run drives Tick at the process table's configured tick cadence until
// ctx is canceled.
func (k *Kernel) Run(ctx context.Context) error {
	for {
		if err := k.procs.WaitForTick(ctx); err != nil {
			return err
		}
		k.Tick()
	}
}
