package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	opened bool
	buf    []byte
}

func (d *fakeDriver) Open(name string, access AccessBits) (DeviceHandle, error) {
	d.opened = true
	return &fakeHandle{driver: d}, nil
}

type fakeHandle struct {
	driver *fakeDriver
	closed bool
}

func (h *fakeHandle) Read(n int) ([]byte, error) { return h.driver.buf, nil }
func (h *fakeHandle) Write(data []byte) (int, error) {
	h.driver.buf = append(h.driver.buf, data...)
	return len(data), nil
}
func (h *fakeHandle) Close() error                              { h.closed = true; return nil }
func (h *fakeHandle) Control(method int, args []byte) ([]byte, error) { return nil, nil }

func TestOpenRegularFileRoundTrip(t *testing.T) {
	r := NewRouter()
	obj, err := r.Open("/tmp/a.txt", Write, 1, 1, true)
	require.NoError(t, err)
	require.Equal(t, "file", obj.Category)

	n, err := r.Write(obj, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	obj2, err := r.Open("/tmp/a.txt", Read, 1, 1, false)
	require.NoError(t, err)
	data, err := r.Read(obj2, 16)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestOpenMissingFileFails(t *testing.T) {
	r := NewRouter()
	_, err := r.Open("/tmp/nope.txt", Read, 1, 1, false)
	require.Error(t, err)
}

func TestPermissionDenied(t *testing.T) {
	r := NewRouter()
	r.Permissions().Set("/tmp/secret.txt", PermEntry{UID: 0, GID: 0, Mode: Mode{Owner: 6, Group: 0, Other: 0}})
	r.fs.files["/tmp/secret.txt"] = []byte("s3cr3t")

	_, err := r.Open("/tmp/secret.txt", Read, 99, 99, false)
	require.Error(t, err)
}

func TestDeviceOpenDispatchesToDriver(t *testing.T) {
	r := NewRouter()
	driver := &fakeDriver{}
	r.Devices().Register("tty", driver)

	obj, err := r.Open("/dev/tty", Read, 0, 0, false)
	require.NoError(t, err)
	require.True(t, driver.opened)
	require.Equal(t, "device", obj.Category)
}

func TestDeviceMissingDriverFails(t *testing.T) {
	r := NewRouter()
	_, err := r.Open("/dev/nonexistent", Read, 0, 0, false)
	require.Error(t, err)
}

func TestMkdirAndList(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.Mkdir("/tmp"))
	_, err := r.Open("/tmp/a.txt", Write, 0, 0, true)
	require.NoError(t, err)

	entries, err := r.List("/tmp")
	require.NoError(t, err)
	require.Contains(t, entries, "/tmp/a.txt")
}

func TestCloseReleasesDeviceHandle(t *testing.T) {
	r := NewRouter()
	driver := &fakeDriver{}
	r.Devices().Register("null", driver)
	obj, err := r.Open("/dev/null", Write, 0, 0, false)
	require.NoError(t, err)

	require.NoError(t, r.Close(obj))
	require.True(t, obj.device.(*fakeHandle).closed)
}
