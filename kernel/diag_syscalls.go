package kernel

import (
	"kexec-go/logging"
)

// KernelLog implements kernel_log: any process may append a message to
// the ring at its own pid.
func (k *Kernel) KernelLog(pid int, level logging.Level, message string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.log(level, pid, message)
}

// DmesgRead implements dmesg_read.
func (k *Kernel) DmesgRead(sinceSeq uint64, count int, levelFilter logging.Level) []logging.Entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ring.Read(sinceSeq, count, levelFilter)
}

// DmesgClear implements dmesg_clear: Ring 0/1 only, and snapshots the
// ring to persistence (if configured) before clearing it so the
// cleared messages remain recoverable across a restart.
func (k *Kernel) DmesgClear(pid int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, err := k.requireRing0or1Pid(pid); err != nil {
		return err
	}
	if k.store != nil {
		if err := k.store.SaveDmesgSnapshot(k.ring.Read(0, 0, "")); err != nil {
			return err
		}
	}
	k.ring.Clear()
	return nil
}

// DmesgStats implements dmesg_stats.
func (k *Kernel) DmesgStats() logging.Stats {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ring.Stats()
}
