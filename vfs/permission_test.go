package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPermissionMissingPathIsPermissive(t *testing.T) {
	p := NewPermissionMap()
	require.True(t, p.Check("/tmp/anything", 1, 1, Read))
}

func TestPermissionOwnerDigit(t *testing.T) {
	p := NewPermissionMap()
	p.Set("/tmp/f", PermEntry{UID: 1, GID: 1, Mode: Mode{Owner: 6, Group: 4, Other: 0}})
	require.True(t, p.Check("/tmp/f", 1, 1, Read))
	require.True(t, p.Check("/tmp/f", 1, 1, Write))
	require.False(t, p.Check("/tmp/f", 1, 1, Execute))
}

func TestPermissionGroupDigit(t *testing.T) {
	p := NewPermissionMap()
	p.Set("/tmp/f", PermEntry{UID: 1, GID: 1, Mode: Mode{Owner: 6, Group: 4, Other: 0}})
	require.True(t, p.Check("/tmp/f", 2, 1, Read))
	require.False(t, p.Check("/tmp/f", 2, 1, Write))
}

func TestPermissionOtherDigit(t *testing.T) {
	p := NewPermissionMap()
	p.Set("/tmp/f", PermEntry{UID: 1, GID: 1, Mode: Mode{Owner: 6, Group: 4, Other: 0}})
	require.False(t, p.Check("/tmp/f", 2, 2, Read))
}

func TestIsDevicePath(t *testing.T) {
	require.True(t, IsDevicePath("/dev/tty"))
	require.True(t, IsDevicePath(`\Device\Tty`))
	require.False(t, IsDevicePath("/tmp/file"))
}
