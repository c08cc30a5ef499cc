package ipc

import "kexec-go/ob"

// Message is one payload queued in a MessageQueue, with an unsigned
// priority — higher value is delivered earlier.
type Message struct {
	Payload  []byte
	Priority uint32
}

// MessageQueue is a bounded priority list. Its dispatch header is
// signaled whenever the queue is non-empty, so a plain wait.Dispatcher
// single-object wait can block a receiver with no payload-aware
// embellishment.
type MessageQueue struct {
	hdr      *ob.DispatchHeader
	messages []Message
	MaxMsgs  int
	MaxSize  int

	SendWaiters    []int
	ReceiveWaiters []int
}

// NewMessageQueue creates an empty bounded priority queue.
func NewMessageQueue(maxMsgs, maxSize int) *MessageQueue {
	return &MessageQueue{
		hdr:     ob.NewDispatchHeader(ob.TypeMessageQueue, true, false),
		MaxMsgs: maxMsgs,
		MaxSize: maxSize,
	}
}

func (q *MessageQueue) TypeTag() ob.ObjectType     { return ob.TypeMessageQueue }
func (q *MessageQueue) Header() *ob.DispatchHeader { return q.hdr }

// Acquire is a no-op for the generic wait path; Receive performs the
// actual dequeue since it needs to return a payload, not just a status.
func (q *MessageQueue) Acquire(pid int) (abandoned bool) { return false }

// Len reports the number of queued messages.
func (q *MessageQueue) Len() int { return len(q.messages) }

// Full reports whether the queue is at its configured message cap.
func (q *MessageQueue) Full() bool { return len(q.messages) >= q.MaxMsgs }

// Send inserts payload before the first entry with a strictly lower
// priority (stable within equal priority). Send performs no bound
// checks; the caller must already have checked payload size and queue
// fullness.
func (q *MessageQueue) Send(payload []byte, priority uint32) {
	idx := len(q.messages)
	for i, m := range q.messages {
		if m.Priority < priority {
			idx = i
			break
		}
	}
	q.messages = append(q.messages, Message{})
	copy(q.messages[idx+1:], q.messages[idx:])
	q.messages[idx] = Message{Payload: payload, Priority: priority}
	q.hdr.Signaled = true
}

// Receive removes and returns the head message. Unsignals the header if
// the queue is now empty.
func (q *MessageQueue) Receive() (Message, bool) {
	if len(q.messages) == 0 {
		return Message{}, false
	}
	m := q.messages[0]
	q.messages = q.messages[1:]
	if len(q.messages) == 0 {
		q.hdr.Signaled = false
	}
	return m, true
}

func (q *MessageQueue) EnqueueSendWaiter(pid int)    { q.SendWaiters = append(q.SendWaiters, pid) }
func (q *MessageQueue) EnqueueReceiveWaiter(pid int) { q.ReceiveWaiters = append(q.ReceiveWaiters, pid) }

func (q *MessageQueue) PopSendWaiter() (int, bool) {
	if len(q.SendWaiters) == 0 {
		return 0, false
	}
	pid := q.SendWaiters[0]
	q.SendWaiters = q.SendWaiters[1:]
	return pid, true
}

func (q *MessageQueue) PopReceiveWaiter() (int, bool) {
	if len(q.ReceiveWaiters) == 0 {
		return 0, false
	}
	pid := q.ReceiveWaiters[0]
	q.ReceiveWaiters = q.ReceiveWaiters[1:]
	return pid, true
}
