package ipc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventSetSignalsHeader(t *testing.T) {
	e := NewEvent(true, false)
	require.False(t, e.Header().Signaled)
	e.Set()
	require.True(t, e.Header().Signaled)
}

func TestEventResetClears(t *testing.T) {
	e := NewEvent(true, true)
	e.Reset()
	require.False(t, e.Header().Signaled)
}

func TestEventManualResetStaysSignaled(t *testing.T) {
	e := NewEvent(true, false)
	require.True(t, e.Header().ManualReset)
}

func TestEventAutoResetHeader(t *testing.T) {
	e := NewEvent(false, false)
	require.False(t, e.Header().ManualReset)
}
