package kernel

import (
	"kexec-go/ipc"
	"kexec-go/kerrors"
	"kexec-go/logging"
	"kexec-go/process"
	"kexec-go/wait"
)

// interruptBlockedLocked wakes pid if it is currently parked on a wait
// syscall, delivering IO_COMPLETION instead of the wait's own result
// (spec §9's signal/wait interaction), and removes it from whatever
// dispatch headers it was registered on. Pipe and message-queue blocks
// are not interrupted by signals; only ke_wait_single/multiple are.
func (k *Kernel) interruptBlockedLocked(pid int) {
	targets, ok := k.waitTargets[pid]
	if !ok {
		return
	}
	k.waits.CancelWait(pid, targets)
	delete(k.waitTargets, pid)
	k.resumeAfterBlockLocked(pid)
	k.wake(pid, wakeResult{result: wait.IOCompletion, signaled: true})
}

// drainSignalsLocked delivers every pending signal queued for pid,
// applying handler dispositions and default actions in FIFO order.
func (k *Kernel) drainSignalsLocked(pid int) {
	q, ok := k.signals[pid]
	if !ok {
		return
	}
	for _, r := range q.Drain() {
		switch {
		case r.Handled:
			if r.HandlerErr != nil {
				k.log(logging.LevelWarn, pid, "signal handler returned error")
			}
		case r.StopProcess:
			_ = k.procs.Stop(pid)
		case r.ContinueProcess:
			_ = k.procs.Wake(pid)
		case r.Terminate:
			k.log(logging.LevelSec, pid, "signal default action terminated process")
			_ = k.killLocked(pid, -int(r.Signum))
		}
	}
}

// SignalSend implements signal_send.
func (k *Kernel) SignalSend(pid int, signum ipc.Signum) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	q, ok := k.signals[pid]
	if !ok {
		return kerrors.ErrProcessGone
	}
	q.Enqueue(signum)
	k.interruptBlockedLocked(pid)
	k.drainSignalsLocked(pid)
	return nil
}

// SignalSendGroup implements signal_send_group: fans out to every
// member of the process group.
func (k *Kernel) SignalSendGroup(pgid int, signum ipc.Signum) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, pid := range k.groups.Members(pgid) {
		if q, ok := k.signals[pid]; ok {
			q.Enqueue(signum)
			k.interruptBlockedLocked(pid)
			k.drainSignalsLocked(pid)
		}
	}
	return nil
}

// SignalPending reports whether pid has any signal queued for delivery
// that hasn't yet reached drainSignalsLocked (e.g. a SIGCHLD enqueued by
// a child's death, still waiting for the parent's next syscall return or
// yield).
func (k *Kernel) SignalPending(pid int) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	q, ok := k.signals[pid]
	if !ok {
		return false, kerrors.ErrProcessGone
	}
	return q.HasPending(), nil
}

// SignalSetHandler implements signal_set_handler.
func (k *Kernel) SignalSetHandler(pid int, signum ipc.Signum, cb func(ipc.Signum) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	q, ok := k.signals[pid]
	if !ok {
		return kerrors.ErrProcessGone
	}
	q.SetHandler(signum, cb)
	return nil
}

// SignalSetMask implements signal_set_mask.
func (k *Kernel) SignalSetMask(pid int, masked []ipc.Signum) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	q, ok := k.signals[pid]
	if !ok {
		return kerrors.ErrProcessGone
	}
	q.SetMask(masked)
	return nil
}

// SyscallOverride implements syscall_override: Ring 0/1 only.
func (k *Kernel) SyscallOverride(pid int, name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, err := k.requireRing0or1Pid(pid); err != nil {
		return err
	}
	return k.override.Claim(pid, name)
}

// SyscallReturn implements syscall_return: the override owner replies
// to one pending invocation.
func (k *Kernel) SyscallReturn(ownerPid int, reqID uint64, name string, values []any, replyErr error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.override.Reply(ownerPid, reqID, name, values, replyErr)
}

// InvokeOverride routes a suspended syscall invocation through the
// override bus. The caller blocks until the owner replies via
// SyscallReturn; if the owner dies first, ReleaseAll (run from
// killLocked) resolves the channel with SYSCALL_HANDLER_GONE.
func (k *Kernel) InvokeOverride(pid int, name string, args []any) ([]any, error) {
	k.mu.Lock()
	tok, err := k.synapse.Current(pid)
	if err != nil {
		k.mu.Unlock()
		return nil, err
	}
	_, _, replyCh, err := k.override.Invoke(name, pid, args, tok)
	if err != nil {
		k.mu.Unlock()
		return nil, err
	}
	_ = k.procs.Sleep(pid, process.SleepOverride)
	k.mu.Unlock()

	reply := <-replyCh

	k.mu.Lock()
	_ = k.procs.Wake(pid)
	k.mu.Unlock()
	return reply.Values, reply.Err
}
