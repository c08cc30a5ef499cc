package kernel

import "kexec-go/kerrors"

// vfsNotAFile reports that a handle resolved to an object whose body is
// not a vfs.FileObject — e.g. a caller passed an event handle to
// vfs_read.
func vfsNotAFile(token string) error {
	return kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "vfs_resolve", token)
}
