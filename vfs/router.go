package vfs

import (
	"strings"

	"kexec-go/kerrors"
	"kexec-go/ob"
)

// FileObject is the object body VFS publishes via the Object Manager
// for both raw-filesystem files and device opens; Category distinguishes
// the two for diagnostics.
type FileObject struct {
	Category string // "file" or "device"
	Path     string
	offset   int
	device   DeviceHandle
}

func (f *FileObject) TypeTag() ob.ObjectType {
	if f.Category == "device" {
		return ob.TypeDevice
	}
	return ob.TypeFile
}

// Release closes the underlying device handle, if any.
func (f *FileObject) Release() {
	if f.device != nil {
		_ = f.device.Close()
	}
}

// Router is the Ring-1 VFS service: the only authoritative filesystem
// syscall implementation. It owns the permission map, the device
// registry, and an in-memory raw filesystem.
type Router struct {
	perms   *PermissionMap
	devices *DeviceRegistry
	fs      *rawFS
}

// NewRouter builds a VFS router with an empty permission map, device
// registry, and raw filesystem.
func NewRouter() *Router {
	return &Router{perms: NewPermissionMap(), devices: NewDeviceRegistry(), fs: newRawFS()}
}

// Permissions returns the router's permission map, for callers that need
// to populate it (e.g. process spawn setting up a bundle's file mode
// bits).
func (r *Router) Permissions() *PermissionMap { return r.perms }

// Devices returns the router's device registry, for driver registration.
func (r *Router) Devices() *DeviceRegistry { return r.devices }

func deviceName(path string) string {
	trimmed := strings.TrimPrefix(path, "/dev/")
	trimmed = strings.TrimPrefix(trimmed, `\Device\`)
	return trimmed
}

// Open implements spec §4.7's illustrative open algorithm: permission
// check for non-device paths, device dispatch for /dev/ paths, raw-FS
// fallback otherwise.
func (r *Router) Open(path string, mode AccessBits, callerUID, callerGID int, create bool) (*FileObject, error) {
	if IsDevicePath(path) {
		name := deviceName(path)
		driver, ok := r.devices.Lookup(name)
		if !ok {
			return nil, kerrors.WrapWithDetail(kerrors.ErrDriverFailed, kerrors.ErrDriverError, "vfs_open", "no driver for "+name)
		}
		handle, err := driver.Open(name, mode)
		if err != nil {
			return nil, kerrors.WrapWithDetail(kerrors.ErrDriverFailed, kerrors.ErrDriverError, "vfs_open", err.Error())
		}
		return &FileObject{Category: "device", Path: path, device: handle}, nil
	}

	if !r.perms.Check(path, callerUID, callerGID, mode) {
		return nil, kerrors.WrapWithDetail(kerrors.ErrPermissionBits, kerrors.ErrPermissionDenied, "vfs_open", path)
	}
	if err := r.fs.Open(path, create); err != nil {
		return nil, kerrors.WrapWithDetail(kerrors.ErrFileMissing, kerrors.ErrFileNotFound, "vfs_open", path)
	}
	return &FileObject{Category: "file", Path: path}, nil
}

// Read dispatches to the device handle or the raw filesystem depending
// on the object's category. Pipe handles never reach here — the kernel
// takes the pipe fast path (§4.6) before calling into the router.
func (r *Router) Read(obj *FileObject, n int) ([]byte, error) {
	if obj.Category == "device" {
		return obj.device.Read(n)
	}
	data, err := r.fs.Read(obj.Path, obj.offset, n)
	if err != nil {
		return nil, err
	}
	obj.offset += len(data)
	return data, nil
}

// Write dispatches to the device handle or the raw filesystem.
func (r *Router) Write(obj *FileObject, data []byte) (int, error) {
	if obj.Category == "device" {
		return obj.device.Write(data)
	}
	n, err := r.fs.Write(obj.Path, obj.offset, data)
	if err != nil {
		return 0, err
	}
	obj.offset += n
	return n, nil
}

// Close releases the object's underlying resource.
func (r *Router) Close(obj *FileObject) error {
	obj.Release()
	return nil
}

// Mkdir creates a directory in the raw filesystem.
func (r *Router) Mkdir(path string) error {
	return r.fs.Mkdir(path)
}

// Remove deletes a path from the raw filesystem.
func (r *Router) Remove(path string) error {
	return r.fs.Remove(path)
}

// Stat reports whether path is a directory and, for files, its size.
func (r *Router) Stat(path string) (isDir bool, size int, err error) {
	return r.fs.Stat(path)
}

// List enumerates the immediate children of a directory path.
func (r *Router) List(path string) ([]string, error) {
	return r.fs.List(path)
}

// DeviceControl issues a driver-specific ioctl-style call.
func (r *Router) DeviceControl(obj *FileObject, method int, args []byte) ([]byte, error) {
	if obj.Category != "device" {
		return nil, kerrors.WrapWithDetail(nil, kerrors.ErrInvalidConfig, "vfs_deviceControl", "not a device object")
	}
	return obj.device.Control(method, args)
}
