package kernel

import (
	"kexec-go/ipc"
	"kexec-go/kerrors"
	"kexec-go/ob"
	"kexec-go/process"
)

const pipeNamespaceRoot = "/pipes/"

func (k *Kernel) resolvePipeLocked(pid, ring int, token string, required ob.AccessMask) (*ipc.Pipe, error) {
	synToken, err := k.synapse.Current(pid)
	if err != nil {
		return nil, err
	}
	obj, err := k.objects.ReferenceByHandle(pid, token, required, synToken, ring)
	if err != nil {
		return nil, err
	}
	p, ok := obj.Body.(*ipc.Pipe)
	if !ok {
		return nil, kerrors.WrapWithHandle(nil, kerrors.ErrInvalidHandle, "ke_pipe", token)
	}
	return p, nil
}

// wakeReaderLocked pops the oldest pending reader, if any, and resumes
// it so it can retry its Read call against the now-available data.
func (k *Kernel) wakeReaderLocked(p *ipc.Pipe) {
	if pid, ok := p.PopReader(); ok {
		k.resumeAfterBlockLocked(pid)
		k.wake(pid, wakeResult{})
	}
}

// wakeWriterLocked pops the oldest pending writer and resumes it so it
// can retry its Write call against the now-freed capacity.
func (k *Kernel) wakeWriterLocked(p *ipc.Pipe) {
	if pid, ok := p.PopWriter(); ok {
		k.resumeAfterBlockLocked(pid)
		k.wake(pid, wakeResult{})
	}
}

func (k *Kernel) publishPipeHandle(pid int, obj *ob.Object, mask ob.AccessMask) (string, error) {
	tok, err := k.synapse.Current(pid)
	if err != nil {
		return "", err
	}
	return k.objects.CreateHandle(pid, obj, mask, tok)
}

// KeCreatePipe implements ke_create_pipe: one shared Pipe body, two
// handles in the creator's table with disjoint access masks.
func (k *Kernel) KeCreatePipe(pid, size int) (readHandle, writeHandle string, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	obj := k.objects.Create(ipc.NewPipe(size))
	readHandle, err = k.publishPipeHandle(pid, obj, ob.AccessRead)
	if err != nil {
		return "", "", err
	}
	writeHandle, err = k.publishPipeHandle(pid, obj, ob.AccessWrite)
	if err != nil {
		return "", "", err
	}
	return readHandle, writeHandle, nil
}

// KeCreateNamedPipe implements ke_create_named_pipe: publishes the pipe
// into the namespace under /pipes/<name> so a second process can find it
// with ke_connect_named_pipe, and mints the creator a read-write handle.
func (k *Kernel) KeCreateNamedPipe(pid int, name string, size int) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	obj := k.objects.Create(ipc.NewPipe(size))
	if err := k.objects.Insert(obj, pipeNamespaceRoot+name); err != nil {
		return "", err
	}
	return k.publishPipeHandle(pid, obj, ob.AccessRead|ob.AccessWrite)
}

// KeConnectNamedPipe implements ke_connect_named_pipe.
func (k *Kernel) KeConnectNamedPipe(pid int, name string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	obj, err := k.objects.Lookup(pipeNamespaceRoot + name)
	if err != nil {
		return "", err
	}
	return k.publishPipeHandle(pid, obj, ob.AccessRead|ob.AccessWrite)
}

// KePipeRead blocks until at least one byte is available or the write
// end closes.
func (k *Kernel) KePipeRead(pid, ring int, token string, n int) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for {
		p, err := k.resolvePipeLocked(pid, ring, token, ob.AccessRead)
		if err != nil {
			return nil, err
		}
		data, outcome := p.Read(n)
		switch outcome {
		case ipc.ReadOK:
			k.wakeWriterLocked(p)
			return data, nil
		case ipc.ReadEOF:
			return nil, nil
		case ipc.ReadWouldBlock:
			p.EnqueueReader(pid)
			_ = k.procs.Sleep(pid, process.SleepPipeRead)
			k.park(pid)
		}
	}
}

// KePipeWrite appends data, blocking whenever the buffer is full until a
// reader frees room, and returns once every byte is written. It delivers
// SIGPIPE and fails outright if the read end has closed.
func (k *Kernel) KePipeWrite(pid, ring int, token string, data []byte) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	written := 0
	for {
		p, err := k.resolvePipeLocked(pid, ring, token, ob.AccessWrite)
		if err != nil {
			return written, err
		}
		accepted, outcome := p.Write(data[written:])
		written += accepted
		switch outcome {
		case ipc.WriteOK:
			k.wakeReaderLocked(p)
			return written, nil
		case ipc.WriteBrokenPipe:
			if q, ok := k.signals[pid]; ok {
				q.Enqueue(ipc.SIGPIPE)
				k.drainSignalsLocked(pid)
			}
			return 0, kerrors.WrapWithPid(kerrors.ErrPipeBroken, kerrors.ErrBrokenPipe, "ke_pipe_write", pid)
		case ipc.WriteWouldBlock:
			if accepted > 0 {
				k.wakeReaderLocked(p)
			}
			p.EnqueueWriter(pid)
			_ = k.procs.Sleep(pid, process.SleepPipeWrite)
			k.park(pid)
		}
	}
}

// KePipeClose implements the handle-level half of closing a pipe end;
// ref-counting in the Object Manager runs Pipe.Release once both ends
// are closed.
func (k *Kernel) KePipeClose(pid int, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.objects.CloseHandle(pid, token)
}
