// Package override implements the Syscall Override / IPC Signal Bus: a
// Ring-1 process claims delivery of a named syscall, and subsequent
// invocations of that name by other processes are suspended, delivered
// to the owner as an inbox message, and resumed with the owner's reply.
package override

import (
	"sync"

	"kexec-go/kerrors"
)

// Request is one pending invocation waiting on the owner's reply.
type Request struct {
	ID           uint64
	Name         string
	CallerPid    int
	Args         []any
	SynapseToken string
}

// Reply is the owner's response to a pending Request.
type Reply struct {
	Values []any
	Err    error
}

// Bus tracks syscall-name ownership and the pending-request inbox for
// every owner.
type Bus struct {
	mu      sync.Mutex
	owners  map[string]int       // syscall name -> owning pid
	inboxes map[int][]*Request   // owning pid -> pending requests FIFO
	nextID  uint64
	pending map[uint64]chan Reply
}

// NewBus builds an empty override bus.
func NewBus() *Bus {
	return &Bus{
		owners:  make(map[string]int),
		inboxes: make(map[int][]*Request),
		pending: make(map[uint64]chan Reply),
	}
}

// Claim registers pid as the owner of name. Exactly one process may own
// a given name at a time.
func (b *Bus) Claim(pid int, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.owners[name]; taken {
		return kerrors.ErrOverrideOwned
	}
	b.owners[name] = pid
	return nil
}

// Release removes pid's ownership of name, e.g. on process exit.
func (b *Bus) Release(pid int, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owners[name] == pid {
		delete(b.owners, name)
	}
}

// ReleaseAll drops every override pid owns, failing its pending requests
// with SYSCALL_HANDLER_GONE.
func (b *Bus) ReleaseAll(pid int) []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, owner := range b.owners {
		if owner == pid {
			delete(b.owners, name)
		}
	}
	var failed []uint64
	for _, req := range b.inboxes[pid] {
		failed = append(failed, req.ID)
		if ch, ok := b.pending[req.ID]; ok {
			ch <- Reply{Err: kerrors.ErrHandlerGone}
			delete(b.pending, req.ID)
		}
	}
	delete(b.inboxes, pid)
	return failed
}

// Owner returns the pid that owns name, if any.
func (b *Bus) Owner(name string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pid, ok := b.owners[name]
	return pid, ok
}

// Invoke enqueues a request onto name's owner's inbox and returns a
// channel that receives the owner's reply exactly once. The caller
// transitions to sleeping and blocks on this channel; the kernel is
// responsible for that suspension, not this type.
func (b *Bus) Invoke(name string, callerPid int, args []any, synapseToken string) (reqID uint64, ownerPid int, replyCh chan Reply, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	owner, ok := b.owners[name]
	if !ok {
		return 0, 0, nil, kerrors.WrapWithDetail(nil, kerrors.ErrSyscallHandlerGone, "syscall_override", "no owner for "+name)
	}
	b.nextID++
	id := b.nextID
	req := &Request{ID: id, Name: name, CallerPid: callerPid, Args: args, SynapseToken: synapseToken}
	b.inboxes[owner] = append(b.inboxes[owner], req)
	ch := make(chan Reply, 1)
	b.pending[id] = ch
	return id, owner, ch, nil
}

// Drain removes and returns every pending request in pid's inbox, FIFO.
func (b *Bus) Drain(pid int) []*Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	reqs := b.inboxes[pid]
	b.inboxes[pid] = nil
	return reqs
}

// Reply delivers the owner's response for reqID. Only the owner of the
// request's name may reply.
func (b *Bus) Reply(ownerPid int, reqID uint64, name string, values []any, replyErr error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owners[name] != ownerPid {
		return kerrors.ErrNotOverrideOwner
	}
	ch, ok := b.pending[reqID]
	if !ok {
		return kerrors.WrapWithDetail(nil, kerrors.ErrInvalidConfig, "syscall_return", "no pending request with this id")
	}
	delete(b.pending, reqID)
	ch <- Reply{Values: values, Err: replyErr}
	return nil
}
