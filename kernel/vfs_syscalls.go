package kernel

import (
	"kexec-go/logging"
	"kexec-go/ob"
	"kexec-go/vfs"
)

// VfsOpen implements vfs_open: dispatches through the Ring-1 VFS router,
// then publishes the resulting file/device object and mints a handle for
// the caller.
func (k *Kernel) VfsOpen(pid int, path string, mode vfs.AccessBits, callerUID, callerGID int, create bool) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	fo, err := k.vfs.Open(path, mode, callerUID, callerGID, create)
	if err != nil {
		k.log(logging.LevelFail, pid, "vfs_open denied: "+path)
		return "", err
	}
	obj := k.objects.Create(fo)
	tok, err := k.synapse.Current(pid)
	if err != nil {
		return "", err
	}
	handle, err := k.objects.CreateHandle(pid, obj, ob.AccessAll, tok)
	if err != nil {
		return "", err
	}
	k.log(logging.LevelVFS, pid, "opened "+path)
	return handle, nil
}

func (k *Kernel) resolveFileLocked(pid, ring int, token string, required ob.AccessMask) (*vfs.FileObject, error) {
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, required, synToken, ring)
	if err != nil {
		return nil, err
	}
	fo, ok := obj.Body.(*vfs.FileObject)
	if !ok {
		return nil, vfsNotAFile(token)
	}
	return fo, nil
}

// VfsRead implements vfs_read.
func (k *Kernel) VfsRead(pid, ring int, token string, n int) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	fo, err := k.resolveFileLocked(pid, ring, token, ob.AccessRead)
	if err != nil {
		return nil, err
	}
	return k.vfs.Read(fo, n)
}

// VfsWrite implements vfs_write.
func (k *Kernel) VfsWrite(pid, ring int, token string, data []byte) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	fo, err := k.resolveFileLocked(pid, ring, token, ob.AccessWrite)
	if err != nil {
		return 0, err
	}
	return k.vfs.Write(fo, data)
}

// VfsClose implements vfs_close.
func (k *Kernel) VfsClose(pid int, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.objects.CloseHandle(pid, token)
}

// VfsList implements vfs_list.
func (k *Kernel) VfsList(path string) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.vfs.List(path)
}

// VfsStat implements vfs_stat.
func (k *Kernel) VfsStat(path string) (isDir bool, size int, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.vfs.Stat(path)
}

// VfsMkdir implements vfs_mkdir.
func (k *Kernel) VfsMkdir(path string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.vfs.Mkdir(path)
}

// VfsRemove implements vfs_remove.
func (k *Kernel) VfsRemove(path string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.vfs.Remove(path)
}

// VfsDeviceControl implements vfs_deviceControl.
func (k *Kernel) VfsDeviceControl(pid, ring int, token string, method int, args []byte) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	fo, err := k.resolveFileLocked(pid, ring, token, ob.AccessRead)
	if err != nil {
		return nil, err
	}
	return k.vfs.DeviceControl(fo, method, args)
}
