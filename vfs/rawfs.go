package vfs

import (
	"strings"
	"sync"

	"kexec-go/kerrors"
)

// rawFS is a minimal in-memory filesystem backing ordinary (non-device)
// vfs_open targets. A hosted kernel executive has no business touching
// the real host filesystem for its own process-visible namespace, so
// files live entirely in memory, the way the object namespace itself
// does.
type rawFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

func newRawFS() *rawFS {
	return &rawFS{files: make(map[string][]byte), dirs: map[string]bool{"/": true}}
}

func (fs *rawFS) Mkdir(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.dirs[path] || fs.files[path] != nil {
		return kerrors.ErrNameExists
	}
	fs.dirs[path] = true
	return nil
}

func (fs *rawFS) Stat(path string) (isDir bool, size int, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.dirs[path] {
		return true, 0, nil
	}
	if data, ok := fs.files[path]; ok {
		return false, len(data), nil
	}
	return false, 0, kerrors.ErrFileMissing
}

func (fs *rawFS) Open(path string, create bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.dirs[path] {
		return kerrors.WrapWithDetail(nil, kerrors.ErrFileNotFound, "vfs_open", "path is a directory")
	}
	if _, ok := fs.files[path]; ok {
		return nil
	}
	if !create {
		return kerrors.ErrFileMissing
	}
	fs.files[path] = nil
	return nil
}

func (fs *rawFS) Read(path string, offset, n int) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, ok := fs.files[path]
	if !ok {
		return nil, kerrors.ErrFileMissing
	}
	if offset >= len(data) {
		return nil, nil
	}
	end := offset + n
	if end > len(data) {
		end = len(data)
	}
	return append([]byte(nil), data[offset:end]...), nil
}

func (fs *rawFS) Write(path string, offset int, data []byte) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	buf, ok := fs.files[path]
	if !ok {
		return 0, kerrors.ErrFileMissing
	}
	end := offset + len(data)
	if end > len(buf) {
		grown := make([]byte, end)
		copy(grown, buf)
		buf = grown
	}
	copy(buf[offset:end], data)
	fs.files[path] = buf
	return len(data), nil
}

func (fs *rawFS) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.dirs[path] {
		delete(fs.dirs, path)
		return nil
	}
	if _, ok := fs.files[path]; ok {
		delete(fs.files, path)
		return nil
	}
	return kerrors.ErrFileMissing
}

func (fs *rawFS) List(path string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !fs.dirs[path] {
		return nil, kerrors.ErrFileMissing
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	var out []string
	for p := range fs.files {
		if strings.HasPrefix(p, prefix) && !strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			out = append(out, p)
		}
	}
	for p := range fs.dirs {
		if p != path && strings.HasPrefix(p, prefix) && !strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			out = append(out, p)
		}
	}
	return out, nil
}
