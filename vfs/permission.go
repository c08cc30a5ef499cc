// Package vfs implements the VFS Router: the Ring-1 service owning the
// only authoritative filesystem-syscall implementation, its permission
// map, and the anonymous-pipe fast path that bypasses router dispatch
// entirely for pipe handles.
package vfs

import "strings"

// Mode is a three-digit octal permission record: owner, group, other.
type Mode struct {
	Owner int // 0-7, bit 4=read 2=write 1=execute
	Group int
	Other int
}

// PermEntry is one permission-map row.
type PermEntry struct {
	UID  int
	GID  int
	Mode Mode
}

const (
	bitRead    = 4
	bitWrite   = 2
	bitExecute = 1
)

// PermissionMap is an absolute path -> PermEntry table. A missing path
// is a permissive default for regular files; paths under /dev/ are
// never consulted here (device drivers enforce their own policy).
type PermissionMap struct {
	entries map[string]PermEntry
}

// NewPermissionMap builds an empty permission map.
func NewPermissionMap() *PermissionMap {
	return &PermissionMap{entries: make(map[string]PermEntry)}
}

// Set records the permission entry for path.
func (p *PermissionMap) Set(path string, entry PermEntry) {
	p.entries[path] = entry
}

// AccessBits is a requested read/write/execute test.
type AccessBits int

const (
	Read AccessBits = bitRead
	Write AccessBits = bitWrite
	Execute AccessBits = bitExecute
)

// IsDevicePath reports whether path falls under the unchecked /dev/ tree.
func IsDevicePath(path string) bool {
	return strings.HasPrefix(path, "/dev/") || strings.HasPrefix(path, `\Device\`)
}

// Check tests requested access bits for (callerUID, callerGID) against
// path's permission entry, extracting the octal digit matching the
// caller's relationship to the file (owner/group/other). A path with no
// explicit entry is permissive (regular-file default).
func (p *PermissionMap) Check(path string, callerUID, callerGID int, requested AccessBits) bool {
	entry, ok := p.entries[path]
	if !ok {
		return true
	}
	var digit int
	switch {
	case callerUID == entry.UID:
		digit = entry.Mode.Owner
	case callerGID == entry.GID:
		digit = entry.Mode.Group
	default:
		digit = entry.Mode.Other
	}
	return digit&int(requested) == int(requested)
}
