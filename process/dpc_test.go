package process

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kexec-go/kconfig"
)

func TestDPCDrainsFIFO(t *testing.T) {
	q := NewDPCQueue(kconfig.Default())
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Enqueue(func(a, b any) { order = append(order, i) }, nil, nil)
	}
	n := q.Drain()
	require.Equal(t, 5, n)
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDPCDrainCap(t *testing.T) {
	q := NewDPCQueue(kconfig.Config{DPCDrainCap: 2}.WithDefaults())
	for i := 0; i < 5; i++ {
		q.Enqueue(func(a, b any) {}, nil, nil)
	}
	require.Equal(t, 2, q.Drain())
	require.Equal(t, 3, q.Len())
}

func TestDPCCancel(t *testing.T) {
	q := NewDPCQueue(kconfig.Default())
	ran := false
	id := q.Enqueue(func(a, b any) { ran = true }, nil, nil)
	require.True(t, q.Cancel(id))
	q.Drain()
	require.False(t, ran)
}

func TestDPCPanicRecovered(t *testing.T) {
	q := NewDPCQueue(kconfig.Default())
	q.Enqueue(func(a, b any) { panic("boom") }, nil, nil)
	require.NotPanics(t, func() { q.Drain() })
}
