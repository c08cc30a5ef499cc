package kernel

import (
	"kexec-go/ipc"
	"kexec-go/kerrors"
	"kexec-go/ob"
)

const sectionNamespaceRoot = "/sections/"

// KeCreateSection implements ke_create_section: publishes a named shared
// memory region in the namespace and mints the creator a handle to it.
func (k *Kernel) KeCreateSection(pid int, name string, size int) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	obj := k.objects.Create(ipc.NewSection(name, size))
	if err := k.objects.Insert(obj, sectionNamespaceRoot+name); err != nil {
		return "", err
	}
	return k.publishPipeHandle(pid, obj, ob.AccessRead|ob.AccessWrite)
}

// KeOpenSection implements ke_open_section: resolves an existing named
// section and mints the caller a handle to it.
func (k *Kernel) KeOpenSection(pid int, name string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	obj, err := k.objects.Lookup(sectionNamespaceRoot + name)
	if err != nil {
		return "", err
	}
	return k.publishPipeHandle(pid, obj, ob.AccessRead|ob.AccessWrite)
}

// KeMapSection implements ke_map_section: returns the live backing slice
// so the caller observes every other mapper's writes through it.
func (k *Kernel) KeMapSection(pid, ring int, token string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, ob.AccessRead, synToken, ring)
	if err != nil {
		return nil, err
	}
	sec, ok := obj.Body.(*ipc.Section)
	if !ok {
		return nil, kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ke_map_section", token)
	}
	return sec.Map(), nil
}
