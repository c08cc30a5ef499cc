package kernel

import (
	"kexec-go/ipc"
	"kexec-go/kerrors"
	"kexec-go/ob"
	"kexec-go/process"
	"kexec-go/wait"
)

func (k *Kernel) resolveMQLocked(pid, ring int, token string) (*ipc.MessageQueue, error) {
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, ob.AccessAll, synToken, ring)
	if err != nil {
		return nil, err
	}
	q, ok := obj.Body.(*ipc.MessageQueue)
	if !ok {
		return nil, kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ke_mqueue", token)
	}
	return q, nil
}

func removeInt(list []int, v int) []int {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// wakeMQReceiveWaiterLocked pops the oldest blocked receiver and resumes
// it so it retries Receive against the now-queued message.
func (k *Kernel) wakeMQReceiveWaiterLocked(q *ipc.MessageQueue) {
	pid, ok := q.PopReceiveWaiter()
	if !ok {
		return
	}
	k.waits.CancelTimeout(pid)
	delete(k.onTimeout, pid)
	k.resumeAfterBlockLocked(pid)
	k.wake(pid, wakeResult{})
}

// wakeMQSendWaiterLocked pops the oldest blocked sender and resumes it
// so it retries Send against the now-freed capacity.
func (k *Kernel) wakeMQSendWaiterLocked(q *ipc.MessageQueue) {
	pid, ok := q.PopSendWaiter()
	if !ok {
		return
	}
	k.waits.CancelTimeout(pid)
	delete(k.onTimeout, pid)
	k.resumeAfterBlockLocked(pid)
	k.wake(pid, wakeResult{})
}

// KeCreateMqueue implements ke_create_mqueue.
func (k *Kernel) KeCreateMqueue(pid, maxMsgs, maxSize int) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.publishSyncObject(pid, ipc.NewMessageQueue(maxMsgs, maxSize))
}

// KeMqSend implements mq_send: blocks while the queue is at max_msgs,
// honoring timeoutMs the same way ke_wait_single does.
func (k *Kernel) KeMqSend(pid, ring int, token string, payload []byte, priority uint32, timeoutMs int64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for {
		q, err := k.resolveMQLocked(pid, ring, token)
		if err != nil {
			return err
		}
		if len(payload) > q.MaxSize {
			return kerrors.WrapWithPid(kerrors.ErrPayloadTooLarge, kerrors.ErrMsgTooLarge, "mq_send", pid)
		}
		if !q.Full() {
			q.Send(payload, priority)
			k.wakeMQReceiveWaiterLocked(q)
			return nil
		}
		if timeoutMs == 0 {
			// Non-blocking probe: the queue is full right now, report
			// timeout immediately rather than parking for a Tick.
			return kerrors.WrapWithPid(nil, kerrors.ErrTimeout, "mq_send", pid)
		}

		q.EnqueueSendWaiter(pid)
		_ = k.procs.Sleep(pid, process.SleepMQSend)
		k.waits.RegisterTimeout(pid, timeoutMs, nil)
		k.onTimeout[pid] = func() { q.SendWaiters = removeInt(q.SendWaiters, pid) }
		woken := k.park(pid)
		delete(k.onTimeout, pid)
		if woken.result == wait.Timeout {
			return kerrors.WrapWithPid(nil, kerrors.ErrTimeout, "mq_send", pid)
		}
	}
}

// KeMqReceive implements mq_receive: blocks while the queue is empty,
// honoring timeoutMs the same way ke_wait_single does. Delivery is
// priority order, then FIFO within equal priority.
func (k *Kernel) KeMqReceive(pid, ring int, token string, timeoutMs int64) ([]byte, uint32, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for {
		q, err := k.resolveMQLocked(pid, ring, token)
		if err != nil {
			return nil, 0, err
		}
		if msg, ok := q.Receive(); ok {
			k.wakeMQSendWaiterLocked(q)
			return msg.Payload, msg.Priority, nil
		}
		if timeoutMs == 0 {
			return nil, 0, kerrors.WrapWithPid(nil, kerrors.ErrTimeout, "mq_receive", pid)
		}

		q.EnqueueReceiveWaiter(pid)
		_ = k.procs.Sleep(pid, process.SleepMQReceive)
		k.waits.RegisterTimeout(pid, timeoutMs, nil)
		k.onTimeout[pid] = func() { q.ReceiveWaiters = removeInt(q.ReceiveWaiters, pid) }
		woken := k.park(pid)
		delete(k.onTimeout, pid)
		if woken.result == wait.Timeout {
			return nil, 0, kerrors.WrapWithPid(nil, kerrors.ErrTimeout, "mq_receive", pid)
		}
	}
}
