// Package ob implements the Object Manager: a typed-object namespace,
// per-process handle tables, and the dispatch-header common view shared
// by every waitable kernel object.
package ob

// ObjectType tags the variant held in an Object's Body.
type ObjectType int

const (
	TypeEvent ObjectType = iota
	TypeMutex
	TypeSemaphore
	TypeTimer
	TypePipe
	TypeSection
	TypeMessageQueue
	TypeFile
	TypeDevice
	TypeDirectory
	TypeSymbolicLink
)

func (t ObjectType) String() string {
	switch t {
	case TypeEvent:
		return "EVENT"
	case TypeMutex:
		return "MUTEX"
	case TypeSemaphore:
		return "SEMAPHORE"
	case TypeTimer:
		return "TIMER"
	case TypePipe:
		return "PIPE"
	case TypeSection:
		return "SECTION"
	case TypeMessageQueue:
		return "MESSAGE_QUEUE"
	case TypeFile:
		return "FILE"
	case TypeDevice:
		return "DEVICE"
	case TypeDirectory:
		return "DIRECTORY"
	case TypeSymbolicLink:
		return "SYMBOLIC_LINK"
	default:
		return "UNKNOWN"
	}
}

// WaiterEntry is one process queued on a DispatchHeader's waiter list.
// WaitKey is the index of the target within the waiter's multi-wait
// context, or 0 for a single-object wait.
type WaiterEntry struct {
	Pid     int
	WaitKey int
}

// DispatchHeader is the common view every waitable object embeds (spec
// data model: wait type, signaled bit, manual-reset bit, waiter list).
type DispatchHeader struct {
	WaitType    ObjectType
	Signaled    bool
	ManualReset bool
	Waiters     []WaiterEntry
}

// NewDispatchHeader builds a header for the given wait type.
func NewDispatchHeader(t ObjectType, manualReset, initialSignaled bool) *DispatchHeader {
	return &DispatchHeader{WaitType: t, Signaled: initialSignaled, ManualReset: manualReset}
}

// Enqueue appends a waiter. A process may only appear once per header;
// callers are responsible for the multi-wait fan-out across headers.
func (h *DispatchHeader) Enqueue(pid, waitKey int) {
	h.Waiters = append(h.Waiters, WaiterEntry{Pid: pid, WaitKey: waitKey})
}

// Dequeue removes every waiter entry belonging to pid and returns whether
// any were removed.
func (h *DispatchHeader) Dequeue(pid int) bool {
	out := h.Waiters[:0]
	removed := false
	for _, w := range h.Waiters {
		if w.Pid == pid {
			removed = true
			continue
		}
		out = append(out, w)
	}
	h.Waiters = out
	return removed
}

// PopFront removes and returns the first waiter in insertion order.
func (h *DispatchHeader) PopFront() (WaiterEntry, bool) {
	if len(h.Waiters) == 0 {
		return WaiterEntry{}, false
	}
	w := h.Waiters[0]
	h.Waiters = h.Waiters[1:]
	return w, true
}

// Body is implemented by every type-specific object payload (ipc.Event,
// ipc.Mutex, ...). Object Manager code never switches on the concrete
// type; it only needs the tag to report it back to callers.
type Body interface {
	TypeTag() ObjectType
}

// Waitable is implemented by bodies that embed a DispatchHeader.
type Waitable interface {
	Body
	Header() *DispatchHeader
}

// Releasable is implemented by bodies with resources to free when an
// Object's reference count reaches zero (close underlying file, free
// buffers, unlink from named namespace).
type Releasable interface {
	Body
	Release()
}

// Object is the untyped record the Object Manager allocates. Body shape
// varies by type tag; ownership is joint between the OB entry (ref 1)
// and every outstanding handle.
type Object struct {
	Type        ObjectType
	RefCount    int
	HandleCount int
	Path        string // namespace path if published, else ""
	Body        Body
}

// NewObject allocates an untyped record with ref=1, handle=0. No
// namespace entry is made; callers use Manager.Insert to publish it.
func NewObject(body Body) *Object {
	return &Object{Type: body.TypeTag(), RefCount: 1, Body: body}
}

// Waitable reports whether the object's body embeds a dispatch header.
func (o *Object) Waitable() (Waitable, bool) {
	w, ok := o.Body.(Waitable)
	return w, ok
}
