package ipc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutexInitialOwnerUnsignaled(t *testing.T) {
	m := NewMutex(true, 7)
	require.Equal(t, 7, m.Owner)
	require.Equal(t, 1, m.Depth)
	require.False(t, m.Header().Signaled)
}

func TestMutexUnownedIsSignaled(t *testing.T) {
	m := NewMutex(false, 7)
	require.Equal(t, 0, m.Owner)
	require.True(t, m.Header().Signaled)
}

func TestMutexAcquireRecursion(t *testing.T) {
	m := NewMutex(false, 0)
	abandoned := m.Acquire(5)
	require.False(t, abandoned)
	require.Equal(t, 5, m.Owner)
	require.Equal(t, 1, m.Depth)

	m.Acquire(5)
	require.Equal(t, 2, m.Depth)
}

func TestMutexReleaseRequiresOwner(t *testing.T) {
	m := NewMutex(false, 0)
	m.Acquire(5)
	require.False(t, m.Release(6), "non-owner cannot release")
	require.True(t, m.Release(5))
}

func TestMutexReleaseSignalsAtZeroDepth(t *testing.T) {
	m := NewMutex(false, 0)
	m.Acquire(5)
	m.Acquire(5) // depth 2
	require.True(t, m.Release(5))
	require.False(t, m.Header().Signaled, "still held at depth 1")

	require.True(t, m.Release(5))
	require.True(t, m.Header().Signaled)
	require.Equal(t, 0, m.Owner)
}

func TestMutexAbandonedOnOwnerDeath(t *testing.T) {
	m := NewMutex(false, 0)
	m.Acquire(5)
	m.MarkOwnerDead()
	require.True(t, m.Header().Signaled)

	abandoned := m.Acquire(6)
	require.True(t, abandoned)
	require.Equal(t, 6, m.Owner)
}
