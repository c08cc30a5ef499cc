package kernel

import (
	"kexec-go/ob"
	"kexec-go/process"
)

// ObCreateHandle implements ob_create_handle: mints a handle token for
// obj in pid's table, stamping it with pid's current synapse token.
func (k *Kernel) ObCreateHandle(pid int, obj *ob.Object, mask ob.AccessMask) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	tok, err := k.synapse.Current(pid)
	if err != nil {
		return "", err
	}
	return k.objects.CreateHandle(pid, obj, mask, tok)
}

// ObReferenceObjectByHandle implements ob_reference_object_by_handle.
func (k *Kernel) ObReferenceObjectByHandle(pid int, token string, required ob.AccessMask) (*ob.Object, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, err := k.procs.Get(pid)
	if err != nil {
		return nil, err
	}
	tok, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	return k.objects.ReferenceByHandle(pid, token, required, tok, int(d.Ring))
}

// ObCloseHandle implements ob_close_handle.
func (k *Kernel) ObCloseHandle(pid int, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.objects.CloseHandle(pid, token)
}

// ObInsertObject implements ob_insert_object.
func (k *Kernel) ObInsertObject(obj *ob.Object, path string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.objects.Insert(obj, path)
}

// ObDumpDirectory implements ob_dump_directory, Ring 0/1 only.
func (k *Kernel) ObDumpDirectory(pid int) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, err := k.procs.Get(pid)
	if err != nil {
		return nil, err
	}
	return k.objects.DumpDirectory(int(d.Ring))
}

// requireRing0or1Pid is a convenience wrapper for syscalls gated on the
// caller's own ring rather than an explicit process.Ring value.
func (k *Kernel) requireRing0or1Pid(pid int) (*process.Descriptor, error) {
	d, err := k.procs.Get(pid)
	if err != nil {
		return nil, err
	}
	if err := requireRing0or1(d.Ring); err != nil {
		return nil, err
	}
	return d, nil
}
