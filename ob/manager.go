package ob

import (
	"sync"

	"github.com/google/uuid"

	"kexec-go/kconfig"
	"kexec-go/kerrors"
)

// Manager is the Object Manager: the rooted namespace tree plus every
// process's handle table. It has its own mutex so it can be exercised
// standalone in tests; the kernel additionally serializes all access
// through its own single executor lock (spec §9).
type Manager struct {
	mu     sync.Mutex
	ns     *namespace
	tables map[int]handleTable
	cfg    kconfig.Config
}

// NewManager builds an empty Object Manager.
func NewManager(cfg kconfig.Config) *Manager {
	return &Manager{
		ns:     newNamespace(),
		tables: make(map[int]handleTable),
		cfg:    cfg.WithDefaults(),
	}
}

// Create allocates an untyped record with ref=1, handle=0. No namespace
// entry is made.
func (m *Manager) Create(body Body) *Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NewObject(body)
}

// Insert publishes obj at path, creating intermediate directories on
// demand. Fails if the name exists.
func (m *Manager) Insert(obj *Object, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ns.insert(path, obj)
}

// Lookup resolves path to an object reference.
func (m *Manager) Lookup(path string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.ns.lookup(path)
	if !ok {
		return nil, kerrors.WrapWithDetail(nil, kerrors.ErrNoSuchObject, "ob_lookup", path)
	}
	return obj, nil
}

// newHandleToken generates an unforgeable, globally unique token with
// the configured fixed prefix.
func (m *Manager) newHandleToken() string {
	return m.cfg.HandleTokenPrefix + uuid.NewString()
}

// CreateHandle produces a per-process token bound to obj, incrementing
// its handle count and recording the access mask and the caller's
// synapse token at this instant.
func (m *Manager) CreateHandle(pid int, obj *Object, mask AccessMask, synapseToken string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.newHandleToken()
	h := &Handle{Token: token, Object: obj, AccessMask: mask, SynapseToken: synapseToken}

	table, ok := m.tables[pid]
	if !ok {
		table = make(handleTable)
		m.tables[pid] = table
	}
	table[token] = h
	obj.HandleCount++
	obj.RefCount++
	return token, nil
}

// ReferenceByHandle resolves a handle token to its object, enforcing the
// synapse check and the requested access mask. The caller bypasses the
// synapse check if ring is 0 or 1, or pid is below the configured
// bypass threshold (spec §4.2, §4.5).
func (m *Manager) ReferenceByHandle(pid int, token string, required AccessMask, callerSynapse string, ring int) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.tables[pid]
	if !ok {
		return nil, kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ob_reference", token)
	}
	h, ok := table[token]
	if !ok {
		return nil, kerrors.WrapWithHandle(kerrors.ErrHandleNotFound, kerrors.ErrInvalidHandle, "ob_reference", token)
	}

	bypass := ring == 0 || ring == 1 || pid < m.cfg.BypassThreshold
	if !bypass && h.SynapseToken != callerSynapse {
		return nil, kerrors.WrapWithHandle(kerrors.ErrSynapseMismatch, kerrors.ErrAccessDenied, "ob_reference", token)
	}
	if !h.AccessMask.Has(required) {
		return nil, kerrors.WrapWithHandle(kerrors.ErrAccessMaskDenied, kerrors.ErrAccessDenied, "ob_reference", token)
	}
	return h.Object, nil
}

// CloseHandle decrements handle and reference counts; closing an
// object's last handle also drops the reference taken at Create. When
// the total reference count reaches zero, it runs the object's release
// hook and unpublishes the object from the namespace.
func (m *Manager) CloseHandle(pid int, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeHandleLocked(pid, token)
}

func (m *Manager) closeHandleLocked(pid int, token string) error {
	table, ok := m.tables[pid]
	if !ok {
		return kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ob_close_handle", token)
	}
	h, ok := table[token]
	if !ok {
		return kerrors.WrapWithHandle(kerrors.ErrHandleClosed, kerrors.ErrInvalidHandle, "ob_close_handle", token)
	}
	delete(table, token)

	obj := h.Object
	obj.HandleCount--
	obj.RefCount--
	if obj.HandleCount <= 0 {
		obj.RefCount--
	}
	if obj.RefCount <= 0 {
		if rel, ok := obj.Body.(Releasable); ok {
			rel.Release()
		}
		if obj.Path != "" {
			m.ns.remove(obj.Path)
		}
	}
	return nil
}

// CloseAllHandles closes every handle owned by pid, e.g. on process exit.
func (m *Manager) CloseAllHandles(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.tables[pid]
	if !ok {
		return
	}
	for token := range table {
		_ = m.closeHandleLocked(pid, token)
	}
	delete(m.tables, pid)
}

// DumpDirectory enumerates the namespace for diagnostic tools. Callers
// below ring 0/1 are rejected.
func (m *Manager) DumpDirectory(ring int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ring != 0 && ring != 1 {
		return nil, kerrors.ErrDumpRequiresPrivilege
	}
	return m.ns.walk(), nil
}
