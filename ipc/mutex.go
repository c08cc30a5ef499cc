package ipc

import "kexec-go/ob"

// Mutex is a dispatch header plus an owner pid and recursion depth.
// Acquisition happens through the Wait Dispatcher; release is a direct
// call since it never blocks.
type Mutex struct {
	hdr       *ob.DispatchHeader
	Owner     int // 0 means unowned
	Depth     int
	ownerDead bool // set externally when the owning process dies
}

// NewMutex creates a mutex, optionally assigning initial ownership to
// the creating process.
func NewMutex(initialOwner bool, creatorPid int) *Mutex {
	m := &Mutex{hdr: ob.NewDispatchHeader(ob.TypeMutex, false, true)}
	if initialOwner {
		m.Owner = creatorPid
		m.Depth = 1
		m.hdr.Signaled = false
	}
	return m
}

func (m *Mutex) TypeTag() ob.ObjectType     { return ob.TypeMutex }
func (m *Mutex) Header() *ob.DispatchHeader { return m.hdr }

// Acquire takes ownership for pid, or increments the recursion depth if
// pid already owns it. Reports abandoned if the prior owner died while
// holding it — the spec requires the acquirer be told, and be handed the
// mutex anyway.
func (m *Mutex) Acquire(pid int) (abandoned bool) {
	wasAbandoned := m.ownerDead
	m.ownerDead = false
	if m.Owner != pid {
		m.Owner = pid
		m.Depth = 0
	}
	m.Depth++
	return wasAbandoned
}

// Release decrements the recursion depth; at zero it clears ownership
// and signals the header so the Wait Dispatcher can wake the next
// waiter. Only the owner may release.
func (m *Mutex) Release(pid int) bool {
	if m.Owner != pid {
		return false
	}
	m.Depth--
	if m.Depth <= 0 {
		m.Owner = 0
		m.Depth = 0
		m.hdr.Signaled = true
	}
	return true
}

// MarkOwnerDead records that the current owner died without releasing.
// The next successful Acquire reports Abandoned exactly once.
func (m *Mutex) MarkOwnerDead() {
	if m.Owner != 0 {
		m.ownerDead = true
		m.hdr.Signaled = true
	}
}
