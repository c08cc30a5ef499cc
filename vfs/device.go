package vfs

// DeviceDriver is a pluggable backend for a `/dev/<name>` entry. The
// router dispatches vfs_open/read/write/deviceControl calls for paths
// under /dev/ to the driver registered for that device name instead of
// touching the raw filesystem.
type DeviceDriver interface {
	Open(name string, access AccessBits) (DeviceHandle, error)
}

// DeviceHandle is the per-open-call handle a DeviceDriver returns.
type DeviceHandle interface {
	Read(n int) ([]byte, error)
	Write(data []byte) (int, error)
	Close() error
	Control(method int, args []byte) ([]byte, error)
}

// DeviceRegistry maps device names to their driver.
type DeviceRegistry struct {
	drivers map[string]DeviceDriver
}

// NewDeviceRegistry builds an empty device registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{drivers: make(map[string]DeviceDriver)}
}

// Register plugs driver in under name (e.g. "tty", "null").
func (r *DeviceRegistry) Register(name string, driver DeviceDriver) {
	r.drivers[name] = driver
}

// Lookup returns the driver registered for name.
func (r *DeviceRegistry) Lookup(name string) (DeviceDriver, bool) {
	d, ok := r.drivers[name]
	return d, ok
}
