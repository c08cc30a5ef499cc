// Package kconfig holds the kernel's runtime-tunable constants: the
// numbers spec.md states in prose (default quantum, watchdog thresholds,
// DPC drain cap, token prefixes) rather than hard-coding them at each
// call site, following the teacher lineage's logging.Config pattern of a
// single struct with sane defaults that callers may override.
package kconfig

import "time"

// Config holds every tunable the kernel executive reads at construction
// time. Zero-value fields are replaced by Default()'s values via
// WithDefaults.
type Config struct {
	// Quantum is the wall-clock budget per resume before a preemption
	// checkpoint forces a yield (spec §4.3).
	Quantum time.Duration

	// WatchdogMultiplier is how many quanta a single slice may last, in
	// total, before a watchdog strike is recorded (see WatchdogThreshold).
	WatchdogMultiplier float64

	// WatchdogStrikeLimit is the number of strikes before the scheduler
	// issues SIGTERM, then SIGKILL.
	WatchdogStrikeLimit int

	// TickPeriod is the wall-clock period of the scheduler's tick driver.
	TickPeriod time.Duration

	// DPCDrainCap bounds how many DPCs are drained per tick (spec §4.9).
	DPCDrainCap int

	// HandleTokenPrefix prefixes every OB handle token ("H-…").
	HandleTokenPrefix string

	// SynapseTokenPrefix prefixes every synapse token ("SYN-…").
	SynapseTokenPrefix string

	// BypassThreshold: callers with pid below this value bypass the
	// synapse check on handle use (spec §4.2), alongside ring 0/1.
	BypassThreshold int

	// DmesgCapacity bounds the kernel message ring (spec §6).
	DmesgCapacity int
}

// Default returns the kernel's default configuration.
func Default() Config {
	return Config{
		Quantum:             50 * time.Millisecond,
		WatchdogMultiplier:  4.0,
		WatchdogStrikeLimit: 3,
		TickPeriod:          10 * time.Millisecond,
		DPCDrainCap:         64,
		HandleTokenPrefix:   "H-",
		SynapseTokenPrefix:  "SYN-",
		BypassThreshold:     8,
		DmesgCapacity:       4096,
	}
}

// WithDefaults fills any zero-value field of cfg from Default().
func (cfg Config) WithDefaults() Config {
	def := Default()
	if cfg.Quantum == 0 {
		cfg.Quantum = def.Quantum
	}
	if cfg.WatchdogMultiplier == 0 {
		cfg.WatchdogMultiplier = def.WatchdogMultiplier
	}
	if cfg.WatchdogStrikeLimit == 0 {
		cfg.WatchdogStrikeLimit = def.WatchdogStrikeLimit
	}
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = def.TickPeriod
	}
	if cfg.DPCDrainCap == 0 {
		cfg.DPCDrainCap = def.DPCDrainCap
	}
	if cfg.HandleTokenPrefix == "" {
		cfg.HandleTokenPrefix = def.HandleTokenPrefix
	}
	if cfg.SynapseTokenPrefix == "" {
		cfg.SynapseTokenPrefix = def.SynapseTokenPrefix
	}
	if cfg.BypassThreshold == 0 {
		cfg.BypassThreshold = def.BypassThreshold
	}
	if cfg.DmesgCapacity == 0 {
		cfg.DmesgCapacity = def.DmesgCapacity
	}
	return cfg
}

// WatchdogThreshold returns the wall-clock slice duration past which a
// watchdog strike is recorded.
func (cfg Config) WatchdogThreshold() time.Duration {
	return time.Duration(float64(cfg.Quantum) * cfg.WatchdogMultiplier)
}
