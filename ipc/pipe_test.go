package ipc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipeWriteThenRead(t *testing.T) {
	p := NewPipe(16)
	n, outcome := p.Write([]byte("hello"))
	require.Equal(t, 5, n)
	require.Equal(t, WriteOK, outcome)

	data, outcome2 := p.Read(16)
	require.Equal(t, ReadOK, outcome2)
	require.Equal(t, "hello", string(data))
}

func TestPipeReadEmptyWritableWouldBlock(t *testing.T) {
	p := NewPipe(16)
	_, outcome := p.Read(1)
	require.Equal(t, ReadWouldBlock, outcome)
}

func TestPipeReadEmptyWriteClosedIsEOF(t *testing.T) {
	p := NewPipe(16)
	p.WriteClosed = true
	_, outcome := p.Read(1)
	require.Equal(t, ReadEOF, outcome)
}

func TestPipeWriteReadClosedIsBrokenPipe(t *testing.T) {
	p := NewPipe(16)
	p.ReadClosed = true
	n, outcome := p.Write([]byte("x"))
	require.Equal(t, 0, n)
	require.Equal(t, WriteBrokenPipe, outcome)
}

func TestPipeWriteFullWouldBlock(t *testing.T) {
	p := NewPipe(4)
	p.Write([]byte("abcd"))
	n, outcome := p.Write([]byte("e"))
	require.Equal(t, 0, n)
	require.Equal(t, WriteWouldBlock, outcome)
}

func TestPipeWriterQueueFIFO(t *testing.T) {
	p := NewPipe(4)
	p.EnqueueWriter(1)
	p.EnqueueWriter(2)
	pid, ok := p.PopWriter()
	require.True(t, ok)
	require.Equal(t, 1, pid)
}

func TestPipeRemoveReader(t *testing.T) {
	p := NewPipe(4)
	p.EnqueueReader(1)
	p.EnqueueReader(2)
	p.RemoveReader(1)
	require.Equal(t, []int{2}, p.Readers)
}

func TestPipeReleaseClosesBothEnds(t *testing.T) {
	p := NewPipe(4)
	p.Release()
	require.True(t, p.ReadClosed)
	require.True(t, p.WriteClosed)
}
