package kernel

import (
	"kexec-go/ipc"
	"kexec-go/kerrors"
	"kexec-go/logging"
	"kexec-go/ob"
	"kexec-go/process"
	"kexec-go/wait"
)

// publishSyncObject is the common tail of every ke_create_* syscall:
// wrap body in an Object, mint a handle in pid's table, and return the
// token.
func (k *Kernel) publishSyncObject(pid int, body ob.Body) (string, error) {
	obj := k.objects.Create(body)
	tok, err := k.synapse.Current(pid)
	if err != nil {
		return "", err
	}
	return k.objects.CreateHandle(pid, obj, ob.AccessAll, tok)
}

func (k *Kernel) resolveAcquirerLocked(pid, ring int, token string) (wait.Acquirer, error) {
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, ob.AccessAll, synToken, ring)
	if err != nil {
		return nil, err
	}
	acquirer, ok := obj.Body.(wait.Acquirer)
	if !ok {
		return nil, wait.NotWaitable
	}
	return acquirer, nil
}

// wakeOutcomes transitions each woken pid back to ready and delivers its
// result to its parked goroutine. Pending all-mode waiters are left
// sleeping. Must be called with k.mu held.
func (k *Kernel) wakeOutcomes(outcomes []wait.NotifyOutcome) {
	for _, o := range outcomes {
		if o.Pending {
			continue
		}
		k.resumeAfterBlockLocked(o.Pid)
		k.wake(o.Pid, wakeResult{result: o.Result, index: o.Index})
	}
}

// KeCreateEvent implements ke_create_event.
func (k *Kernel) KeCreateEvent(pid int, manualReset, initialSignaled bool) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.publishSyncObject(pid, ipc.NewEvent(manualReset, initialSignaled))
}

func (k *Kernel) resolveEventLocked(pid, ring int, token string) (*ipc.Event, error) {
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, ob.AccessAll, synToken, ring)
	if err != nil {
		return nil, err
	}
	ev, ok := obj.Body.(*ipc.Event)
	if !ok {
		return nil, kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ke_event", token)
	}
	return ev, nil
}

// KeSetEvent implements ke_set_event.
func (k *Kernel) KeSetEvent(pid, ring int, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ev, err := k.resolveEventLocked(pid, ring, token)
	if err != nil {
		return err
	}
	ev.Set()
	k.wakeOutcomes(k.waits.Notify(ev.Header(), ev.Acquire))
	k.log(logging.LevelIPC, pid, "event set")
	return nil
}

// KeResetEvent implements ke_reset_event.
func (k *Kernel) KeResetEvent(pid, ring int, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ev, err := k.resolveEventLocked(pid, ring, token)
	if err != nil {
		return err
	}
	ev.Reset()
	return nil
}

// KePulseEvent implements ke_pulse_event: signals, wakes whoever is
// currently queued, then clears — a process that waits later never
// observes the pulse.
func (k *Kernel) KePulseEvent(pid, ring int, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ev, err := k.resolveEventLocked(pid, ring, token)
	if err != nil {
		return err
	}
	ev.Pulse()
	k.wakeOutcomes(k.waits.Notify(ev.Header(), ev.Acquire))
	ev.EndPulse()
	return nil
}

// KeCreateMutex implements ke_create_mutex.
func (k *Kernel) KeCreateMutex(pid int, initialOwner bool) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	m := ipc.NewMutex(initialOwner, pid)
	k.mutexes = append(k.mutexes, m)
	return k.publishSyncObject(pid, m)
}

func (k *Kernel) resolveMutexLocked(pid, ring int, token string) (*ipc.Mutex, error) {
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, ob.AccessAll, synToken, ring)
	if err != nil {
		return nil, err
	}
	m, ok := obj.Body.(*ipc.Mutex)
	if !ok {
		return nil, kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ke_mutex", token)
	}
	return m, nil
}

// KeReleaseMutex implements ke_release_mutex.
func (k *Kernel) KeReleaseMutex(pid, ring int, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, err := k.resolveMutexLocked(pid, ring, token)
	if err != nil {
		return err
	}
	if !m.Release(pid) {
		return kerrors.WrapWithHandle(nil, kerrors.ErrAccessDenied, "ke_release_mutex", token)
	}
	if m.Header().Signaled {
		k.wakeOutcomes(k.waits.Notify(m.Header(), m.Acquire))
	}
	return nil
}

// KeCreateSemaphore implements ke_create_semaphore.
func (k *Kernel) KeCreateSemaphore(pid, initial, max int) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.publishSyncObject(pid, ipc.NewSemaphore(initial, max))
}

func (k *Kernel) resolveSemaphoreLocked(pid, ring int, token string) (*ipc.Semaphore, error) {
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, ob.AccessAll, synToken, ring)
	if err != nil {
		return nil, err
	}
	s, ok := obj.Body.(*ipc.Semaphore)
	if !ok {
		return nil, kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ke_semaphore", token)
	}
	return s, nil
}

// KeReleaseSemaphore implements ke_release_semaphore: adds n to the
// count and wakes up to n queued waiters, one acquire per wake.
func (k *Kernel) KeReleaseSemaphore(pid, ring int, token string, n int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, err := k.resolveSemaphoreLocked(pid, ring, token)
	if err != nil {
		return err
	}
	avail := s.Release(n)
	for avail > 0 && len(s.Header().Waiters) > 0 {
		outcomes := k.waits.Notify(s.Header(), s.Acquire)
		if len(outcomes) == 0 {
			break
		}
		k.wakeOutcomes(outcomes)
		avail--
	}
	return nil
}

// KeCreateTimer implements ke_create_timer.
func (k *Kernel) KeCreateTimer(pid int) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextTimerID++
	t := ipc.NewTimer(k.nextTimerID)
	k.timers = append(k.timers, t)
	return k.publishSyncObject(pid, t)
}

func (k *Kernel) resolveTimerLocked(pid, ring int, token string) (*ipc.Timer, error) {
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, ob.AccessAll, synToken, ring)
	if err != nil {
		return nil, err
	}
	t, ok := obj.Body.(*ipc.Timer)
	if !ok {
		return nil, kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ke_timer", token)
	}
	return t, nil
}

// KeSetTimer implements ke_set_timer.
func (k *Kernel) KeSetTimer(pid, ring int, token string, delayMs, periodMs int64, dpcArg1, dpcArg2 any, hasDPC bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	t, err := k.resolveTimerLocked(pid, ring, token)
	if err != nil {
		return err
	}
	t.Set(k.clk.Now(), delayMs, periodMs, dpcArg1, dpcArg2, hasDPC)
	return nil
}

// KeCancelTimer implements ke_cancel_timer.
func (k *Kernel) KeCancelTimer(pid, ring int, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	t, err := k.resolveTimerLocked(pid, ring, token)
	if err != nil {
		return err
	}
	t.Cancel()
	return nil
}

// KeWaitSingle implements ke_wait_single. timeoutMs < 0 waits
// indefinitely; 0 probes without blocking.
func (k *Kernel) KeWaitSingle(pid, ring int, token string, timeoutMs int64) (wait.Result, error) {
	k.mu.Lock()
	d, err := k.procs.Get(pid)
	if err != nil {
		k.mu.Unlock()
		return wait.Failed, err
	}
	if !d.Preemptible() {
		k.mu.Unlock()
		return wait.Failed, kerrors.ErrWaitAboveDispatch
	}
	acquirer, err := k.resolveAcquirerLocked(pid, ring, token)
	if err != nil {
		k.mu.Unlock()
		return wait.Failed, err
	}
	target := wait.Target{Handle: token, Body: acquirer}
	result, blocked := k.waits.WaitSingle(pid, target)
	if !blocked {
		k.mu.Unlock()
		return result, nil
	}
	if timeoutMs == 0 {
		// A zero timeout is a non-blocking probe: the object wasn't
		// signaled, so report Timeout immediately instead of parking
		// for a Tick that may never come.
		k.waits.CancelWait(pid, []wait.Target{target})
		k.mu.Unlock()
		return wait.Timeout, nil
	}

	_ = k.procs.Sleep(pid, process.SleepWaitSingle)
	k.waits.RegisterTimeout(pid, timeoutMs, []*ob.DispatchHeader{acquirer.Header()})
	k.waitTargets[pid] = []wait.Target{target}
	woken := k.park(pid)
	delete(k.waitTargets, pid)
	k.mu.Unlock()
	if woken.signaled {
		return wait.IOCompletion, nil
	}
	return woken.result, nil
}

// KeWaitMultiple implements ke_wait_multiple.
func (k *Kernel) KeWaitMultiple(pid, ring int, tokens []string, waitAll bool, timeoutMs int64) (wait.Result, int, error) {
	k.mu.Lock()
	d, err := k.procs.Get(pid)
	if err != nil {
		k.mu.Unlock()
		return wait.Failed, -1, err
	}
	if !d.Preemptible() {
		k.mu.Unlock()
		return wait.Failed, -1, kerrors.ErrWaitAboveDispatch
	}

	targets := make([]wait.Target, 0, len(tokens))
	headers := make([]*ob.DispatchHeader, 0, len(tokens))
	for _, tok := range tokens {
		acquirer, err := k.resolveAcquirerLocked(pid, ring, tok)
		if err != nil {
			k.mu.Unlock()
			return wait.Failed, -1, err
		}
		targets = append(targets, wait.Target{Handle: tok, Body: acquirer})
		headers = append(headers, acquirer.Header())
	}

	result, index, blocked := k.waits.WaitMulti(pid, targets, waitAll)
	if !blocked {
		k.mu.Unlock()
		return result, index, nil
	}
	if timeoutMs == 0 {
		k.waits.CancelWait(pid, targets)
		k.mu.Unlock()
		return wait.Timeout, -1, nil
	}

	reason := process.SleepWaitMulti
	_ = k.procs.Sleep(pid, reason)
	k.waits.RegisterTimeout(pid, timeoutMs, headers)
	k.waitTargets[pid] = targets
	woken := k.park(pid)
	delete(k.waitTargets, pid)
	k.mu.Unlock()
	if woken.signaled {
		return wait.IOCompletion, -1, nil
	}
	return woken.result, woken.index, nil
}
