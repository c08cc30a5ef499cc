package ipc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimerSetArmsAndClearsSignal(t *testing.T) {
	tm := NewTimer(1)
	tm.Set(10.0, 500, 0, nil, nil, false)
	require.True(t, tm.Active)
	require.False(t, tm.Header().Signaled)
	require.InDelta(t, 10.5, tm.Deadline, 1e-9)
}

func TestTimerExpireOneShot(t *testing.T) {
	tm := NewTimer(1)
	tm.Set(0, 100, 0, nil, nil, false)
	rearmed := tm.Expire(0.1)
	require.False(t, rearmed)
	require.False(t, tm.Active)
	require.True(t, tm.Header().Signaled)
}

func TestTimerExpirePeriodicRearms(t *testing.T) {
	tm := NewTimer(1)
	tm.Set(0, 100, 50, nil, nil, false)
	rearmed := tm.Expire(0.1)
	require.True(t, rearmed)
	require.True(t, tm.Active)
	require.InDelta(t, 0.15, tm.Deadline, 1e-9)
}

func TestTimerCancelDeactivates(t *testing.T) {
	tm := NewTimer(1)
	tm.Set(0, 100, 0, nil, nil, false)
	tm.Cancel()
	require.False(t, tm.Active)
}
