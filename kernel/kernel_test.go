package kernel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kexec-go/clock"
	"kexec-go/ipc"
	"kexec-go/kconfig"
	"kexec-go/logging"
	"kexec-go/process"
	"kexec-go/wait"
)

// newTestKernel builds a kernel with no persistence and a fake clock,
// the pattern every scenario test below shares.
func newTestKernel(t *testing.T) (*Kernel, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake()
	k, err := New(kconfig.Default(), clk, "")
	require.NoError(t, err)
	return k, clk
}

func spawnRing3(t *testing.T, k *Kernel) int {
	t.Helper()
	d, err := k.ProcessSpawn(0, process.Ring3, 0, nil, nil)
	require.NoError(t, err)
	return d.Pid
}

// blocking goroutines have no externally observable "parked" signal, so
// every scenario gives the blocking side a short grace period to reach
// k.park before the unblocking side runs. 20ms is generous next to the
// in-process channel operations under test.
const parkGrace = 20 * time.Millisecond

// Scenario 1 (spec §8): producer/consumer over an anonymous pipe of
// capacity 8. Filling the buffer exactly succeeds without blocking; a
// further write against the full buffer must block until the consumer
// drains it.
func TestPipeProducerConsumerBlocksOnCapacity(t *testing.T) {
	k, _ := newTestKernel(t)
	producer := spawnRing3(t, k)
	consumer := spawnRing3(t, k)

	readTok, writeTok, err := k.KeCreatePipe(producer, 8)
	require.NoError(t, err)

	n, err := k.KePipeWrite(producer, int(process.Ring3), writeTok, []byte("01234567"))
	require.NoError(t, err)
	require.Equal(t, 8, n)

	writeDone := make(chan struct{})
	var n2 int
	var werr error
	go func() {
		n2, werr = k.KePipeWrite(producer, int(process.Ring3), writeTok, []byte("89"))
		close(writeDone)
	}()

	time.Sleep(parkGrace)
	select {
	case <-writeDone:
		t.Fatal("write against a full pipe returned before any read freed capacity")
	default:
	}

	first, err := k.KePipeRead(consumer, int(process.Ring3), readTok, 8)
	require.NoError(t, err)
	require.Equal(t, "01234567", string(first))

	select {
	case <-writeDone:
	case <-time.After(time.Second):
		t.Fatal("producer never woke after capacity freed")
	}
	require.NoError(t, werr)
	require.Equal(t, 2, n2)

	rest, err := k.KePipeRead(consumer, int(process.Ring3), readTok, 8)
	require.NoError(t, err)
	require.Equal(t, "89", string(rest))
}

// Scenario 2 (spec §8): ke_wait_multiple in any-mode over three
// auto-reset events, where only the second becomes signaled, 100ms
// after the wait begins.
func TestWaitMultipleAnyModeWakesOnDelayedEvent(t *testing.T) {
	k, clk := newTestKernel(t)
	pid := spawnRing3(t, k)

	var tokens [3]string
	for i := range tokens {
		tok, err := k.KeCreateEvent(pid, false, false)
		require.NoError(t, err)
		tokens[i] = tok
	}

	type waitOutcome struct {
		result wait.Result
		index  int
		err    error
	}
	done := make(chan waitOutcome, 1)
	go func() {
		r, idx, err := k.KeWaitMultiple(pid, int(process.Ring3), tokens[:], false, -1)
		done <- waitOutcome{r, idx, err}
	}()

	time.Sleep(parkGrace)
	select {
	case <-done:
		t.Fatal("any-mode wait returned before any event was set")
	default:
	}

	clk.Advance(0.1)
	require.NoError(t, k.KeSetEvent(pid, int(process.Ring3), tokens[1]))

	select {
	case o := <-done:
		require.NoError(t, o.err)
		require.Equal(t, wait.WaitIndex(1), o.result)
		require.Equal(t, 1, o.index)
	case <-time.After(time.Second):
		t.Fatal("waiter never woke after the second event was set")
	}
}

// Scenario 3 (spec §8): two processes each run 500 acquire/increment/
// release cycles on a mutex guarding a shared counter; the final count
// must be exactly 1000 with no interleaved increments.
func TestMutexSerializesSharedCounter(t *testing.T) {
	k, _ := newTestKernel(t)
	owner := spawnRing3(t, k)
	other := spawnRing3(t, k)

	mutexTok, err := k.KeCreateMutex(owner, false)
	require.NoError(t, err)

	counter := 0
	const iterations = 500

	run := func(pid int) {
		for i := 0; i < iterations; i++ {
			_, err := k.KeWaitSingle(pid, int(process.Ring3), mutexTok, -1)
			require.NoError(t, err)
			counter++
			require.NoError(t, k.KeReleaseMutex(pid, int(process.Ring3), mutexTok))
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); run(owner) }()
	go func() { defer wg.Done(); run(other) }()
	wg.Wait()

	require.Equal(t, 2*iterations, counter)
}

// Scenario 4 (spec §8): a priority message queue fed "lo"/1, "hi"/10,
// "md"/5 must deliver "hi", then "md", then "lo".
func TestMqueuePriorityOrdering(t *testing.T) {
	k, _ := newTestKernel(t)
	pid := spawnRing3(t, k)

	tok, err := k.KeCreateMqueue(pid, 8, 64)
	require.NoError(t, err)

	require.NoError(t, k.KeMqSend(pid, int(process.Ring3), tok, []byte("lo"), 1, -1))
	require.NoError(t, k.KeMqSend(pid, int(process.Ring3), tok, []byte("hi"), 10, -1))
	require.NoError(t, k.KeMqSend(pid, int(process.Ring3), tok, []byte("md"), 5, -1))

	for _, want := range []string{"hi", "md", "lo"} {
		payload, _, err := k.KeMqReceive(pid, int(process.Ring3), tok, -1)
		require.NoError(t, err)
		require.Equal(t, want, string(payload))
	}
}

// Scenario 5 (spec §8): SIGTERM's default action kills the target
// process, and its parent observes SIGCHLD.
func TestSignalTermKillsTargetAndNotifiesParent(t *testing.T) {
	k, _ := newTestKernel(t)
	parent := spawnRing3(t, k)
	child, err := k.ProcessSpawn(parent, process.Ring3, 0, nil, nil)
	require.NoError(t, err)

	require.NoError(t, k.SignalSend(child.Pid, ipc.SIGTERM))

	d, err := k.procs.Get(child.Pid)
	require.NoError(t, err)
	require.Equal(t, process.StateDead, d.State)

	parentQueue := k.signals[parent]
	require.NotNil(t, parentQueue)
	require.True(t, parentQueue.HasPending(), "parent should have a pending SIGCHLD")
	// SIGCHLD's default action is ActionIgnore, so it produces no
	// DrainResult, but draining it must still clear HasPending.
	require.Empty(t, parentQueue.Drain())
	require.False(t, parentQueue.HasPending())
}

// Scenario 6 (spec §8): mq_receive on an empty queue times out, and the
// caller is removed from the queue's receive-wait list once it does.
func TestMqueueReceiveTimesOutAndUnregistersWaiter(t *testing.T) {
	k, clk := newTestKernel(t)
	pid := spawnRing3(t, k)

	tok, err := k.KeCreateMqueue(pid, 4, 64)
	require.NoError(t, err)

	type recvOutcome struct {
		err error
	}
	done := make(chan recvOutcome, 1)
	go func() {
		_, _, err := k.KeMqReceive(pid, int(process.Ring3), tok, 50)
		done <- recvOutcome{err}
	}()

	time.Sleep(parkGrace)
	k.mu.Lock()
	clk.Advance(0.2)
	k.mu.Unlock()
	k.Tick()

	select {
	case o := <-done:
		require.Error(t, o.err)
	case <-time.After(time.Second):
		t.Fatal("mq_receive never timed out")
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	q, err := k.resolveMQLocked(pid, int(process.Ring3), tok)
	require.NoError(t, err)
	require.Empty(t, q.ReceiveWaiters)
}

// Testable property from spec §8: kernel uptime, as observed through
// dmesg timestamps, never decreases no matter how Tick interleaves with
// syscalls.
func TestUptimeNeverDecreasesAcrossTicks(t *testing.T) {
	k, clk := newTestKernel(t)
	pid := spawnRing3(t, k)

	var last float64
	for i := 0; i < 50; i++ {
		clk.Advance(0.01)
		k.KernelLog(pid, logging.LevelDebug, "tick probe")
		k.Tick()
	}

	entries := k.DmesgRead(0, 0, "")
	for _, e := range entries {
		require.GreaterOrEqual(t, e.Uptime, last)
		last = e.Uptime
	}
}
