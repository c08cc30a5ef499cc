package kconfig

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Quantum <= 0 {
		t.Error("expected positive default quantum")
	}
	if cfg.WatchdogStrikeLimit != 3 {
		t.Errorf("expected 3 strikes, got %d", cfg.WatchdogStrikeLimit)
	}
	if cfg.DPCDrainCap != 64 {
		t.Errorf("expected DPC drain cap 64, got %d", cfg.DPCDrainCap)
	}
}

func TestWithDefaults_FillsZeroFields(t *testing.T) {
	cfg := Config{WatchdogStrikeLimit: 5}.WithDefaults()
	if cfg.WatchdogStrikeLimit != 5 {
		t.Errorf("expected override to stick, got %d", cfg.WatchdogStrikeLimit)
	}
	if cfg.Quantum != Default().Quantum {
		t.Errorf("expected default quantum to fill in, got %v", cfg.Quantum)
	}
	if cfg.DmesgCapacity != Default().DmesgCapacity {
		t.Errorf("expected default dmesg capacity to fill in, got %d", cfg.DmesgCapacity)
	}
}

func TestWatchdogThreshold(t *testing.T) {
	cfg := Config{Quantum: 0, WatchdogMultiplier: 0}.WithDefaults()
	got := cfg.WatchdogThreshold()
	want := cfg.Quantum * 4
	if got != want {
		t.Errorf("expected watchdog threshold %v, got %v", want, got)
	}
}
