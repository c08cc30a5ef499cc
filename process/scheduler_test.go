package process

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kexec-go/clock"
	"kexec-go/kconfig"
)

func newTestTable() (*Table, *clock.Fake) {
	fake := clock.NewFake()
	return NewTable(kconfig.Default(), fake), fake
}

func TestSpawnAssignsIncreasingPids(t *testing.T) {
	tbl, _ := newTestTable()
	a := tbl.Spawn(0, Ring3, 0)
	b := tbl.Spawn(0, Ring3, 0)
	require.Less(t, a.Pid, b.Pid)
	require.Equal(t, StateReady, a.State)
}

func TestNextReadyPriorityTiebreak(t *testing.T) {
	tbl, _ := newTestTable()
	low := tbl.Spawn(0, Ring3, 5)
	high := tbl.Spawn(0, Ring3, 1)
	_ = low

	next := tbl.NextReady()
	require.Equal(t, high.Pid, next.Pid)
}

func TestNextReadySkipsNonReady(t *testing.T) {
	tbl, _ := newTestTable()
	d := tbl.Spawn(0, Ring3, 0)
	require.NoError(t, tbl.Sleep(d.Pid, SleepWaitSingle))
	require.Nil(t, tbl.NextReady())
}

func TestCheckpointQuantumExceeded(t *testing.T) {
	tbl, fake := newTestTable()
	d := tbl.Spawn(0, Ring3, 0)
	require.NoError(t, tbl.Resume(d.Pid))

	fake.Advance(kconfig.Default().Quantum.Seconds() + 0.01)
	result := tbl.Checkpoint(d.Pid)
	require.Equal(t, QuantumExceeded, result)
}

func TestCheckpointWatchdogKillAfterStrikeLimit(t *testing.T) {
	tbl, fake := newTestTable()
	cfg := kconfig.Default()
	d := tbl.Spawn(0, Ring3, 0)

	var last CheckpointResult
	for i := 0; i < cfg.WatchdogStrikeLimit; i++ {
		require.NoError(t, tbl.Resume(d.Pid))
		fake.Advance(cfg.WatchdogThreshold().Seconds() + 0.01)
		last = tbl.Checkpoint(d.Pid)
	}
	require.Equal(t, WatchdogKill, last)
}

func TestCPUAccountingOnYield(t *testing.T) {
	tbl, fake := newTestTable()
	d := tbl.Spawn(0, Ring3, 0)
	require.NoError(t, tbl.Resume(d.Pid))
	fake.Advance(0.02)
	require.NoError(t, tbl.Yield(d.Pid, false))

	require.InDelta(t, 0.02, d.CPU.Accumulated, 1e-9)
	require.Equal(t, 0, d.CPU.Preemptions)
	require.Equal(t, StateReady, d.State)
}

func TestInvoluntaryYieldIncrementsPreemptions(t *testing.T) {
	tbl, _ := newTestTable()
	d := tbl.Spawn(0, Ring3, 0)
	require.NoError(t, tbl.Resume(d.Pid))
	require.NoError(t, tbl.Yield(d.Pid, true))
	require.Equal(t, 1, d.CPU.Preemptions)
}

func TestKillMarksDead(t *testing.T) {
	tbl, _ := newTestTable()
	d := tbl.Spawn(0, Ring3, 0)
	require.NoError(t, tbl.Kill(d.Pid, 7))
	require.Equal(t, StateDead, d.State)
	require.Equal(t, 7, d.ExitCode)
}

func TestKillUnknownPidFails(t *testing.T) {
	tbl, _ := newTestTable()
	require.Error(t, tbl.Kill(999, 0))
}

func TestWakeClearsSleepReason(t *testing.T) {
	tbl, _ := newTestTable()
	d := tbl.Spawn(0, Ring3, 0)
	require.NoError(t, tbl.Sleep(d.Pid, SleepWaitSingle))
	require.NoError(t, tbl.Wake(d.Pid))
	require.Equal(t, StateReady, d.State)
	require.Equal(t, SleepNone, d.SleepReason)
}
