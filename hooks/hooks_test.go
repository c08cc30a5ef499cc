package hooks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInvokesRegisteredHooksInOrder(t *testing.T) {
	r := NewRegistry()
	var order []int
	r.Register(PostSpawn, func(Event) error { order = append(order, 1); return nil })
	r.Register(PostSpawn, func(Event) error { order = append(order, 2); return nil })

	r.Run(PostSpawn, Event{Pid: 7})
	require.Equal(t, []int{1, 2}, order)
}

func TestRunOnlyInvokesHooksForThatPoint(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register(PreSpawn, func(Event) error { called = true; return nil })

	r.Run(PostExit, Event{Pid: 7})
	require.False(t, called)
}

func TestRunContinuesAfterHookFailure(t *testing.T) {
	r := NewRegistry()
	var ran []int
	r.Register(WatchdogStrike, func(Event) error { ran = append(ran, 1); return errors.New("boom") })
	r.Register(WatchdogStrike, func(Event) error { ran = append(ran, 2); return nil })

	r.Run(WatchdogStrike, Event{Pid: 3, Strikes: 2})
	require.Equal(t, []int{1, 2}, ran)
}

func TestRunWithNoHooksRegisteredIsNoop(t *testing.T) {
	r := NewRegistry()
	require.NotPanics(t, func() { r.Run(ChildDeath, Event{Pid: 9}) })
}

func TestEventCarriesLifecycleData(t *testing.T) {
	r := NewRegistry()
	var got Event
	r.Register(PostExit, func(e Event) error { got = e; return nil })

	r.Run(PostExit, Event{Pid: 4, ParentPid: 1, ExitCode: 137, Uptime: 12.5})
	require.Equal(t, 4, got.Pid)
	require.Equal(t, 1, got.ParentPid)
	require.Equal(t, 137, got.ExitCode)
	require.Equal(t, 12.5, got.Uptime)
}
