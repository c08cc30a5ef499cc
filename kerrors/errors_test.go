package kerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{ErrInvalidHandle, "invalid handle"},
		{ErrAccessDenied, "access denied"},
		{ErrNotWaitable, "not waitable"},
		{ErrCannotBlock, "cannot block"},
		{ErrTimeout, "timeout"},
		{ErrAbandoned, "abandoned"},
		{ErrBrokenPipe, "broken pipe"},
		{ErrNoSuchObject, "no such object"},
		{ErrPermissionDenied, "permission denied"},
		{ErrFileNotFound, "file not found"},
		{ErrDriverError, "driver error"},
		{ErrQueueFull, "queue full"},
		{ErrQueueEmpty, "queue empty"},
		{ErrMsgTooLarge, "message too large"},
		{ErrNoSuchProcess, "no such process"},
		{ErrSyscallHandlerGone, "syscall handler gone"},
		{ErrInvalidConfig, "invalid config"},
		{ErrAlreadyExists, "already exists"},
		{ErrInternal, "internal error"},
		{ErrorKind(999), "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("ErrorKind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKernelError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *KernelError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "<nil>",
		},
		{
			name: "full error",
			err: &KernelError{
				Op:     "ke_wait_single",
				Pid:    7,
				Handle: "H-abc",
				Kind:   ErrTimeout,
				Detail: "deadline elapsed",
				Err:    fmt.Errorf("expired"),
			},
			expected: "pid 7: handle H-abc: ke_wait_single: deadline elapsed: expired",
		},
		{
			name: "without pid or handle",
			err: &KernelError{
				Op:     "vfs_open",
				Kind:   ErrFileNotFound,
				Detail: "no such path",
			},
			expected: "vfs_open: no such path",
		},
		{
			name: "kind only",
			err: &KernelError{
				Kind: ErrAccessDenied,
			},
			expected: "access denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("KernelError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKernelError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("underlying error")
	err := &KernelError{Op: "test", Kind: ErrInternal, Err: underlying}

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	var nilErr *KernelError
	if got := nilErr.Unwrap(); got != nil {
		t.Errorf("nil.Unwrap() = %v, want nil", got)
	}
}

func TestKernelError_Is(t *testing.T) {
	err1 := &KernelError{Kind: ErrNoSuchProcess, Op: "test1"}
	err2 := &KernelError{Kind: ErrNoSuchProcess, Op: "test2"}
	err3 := &KernelError{Kind: ErrAccessDenied, Op: "test3"}

	if !err1.Is(err2) {
		t.Error("err1.Is(err2) should be true (same kind)")
	}
	if err1.Is(err3) {
		t.Error("err1.Is(err3) should be false (different kind)")
	}
	if err1.Is(fmt.Errorf("some error")) {
		t.Error("err1.Is(fmt.Errorf(...)) should be false")
	}

	var nilErr *KernelError
	if !nilErr.Is(nil) {
		t.Error("nil.Is(nil) should be true")
	}
}

func TestIsKind(t *testing.T) {
	err := &KernelError{Kind: ErrNoSuchObject}
	wrapped := fmt.Errorf("wrapped: %w", err)

	if !IsKind(err, ErrNoSuchObject) {
		t.Error("IsKind(err, ErrNoSuchObject) should be true")
	}
	if !IsKind(wrapped, ErrNoSuchObject) {
		t.Error("IsKind(wrapped, ErrNoSuchObject) should be true")
	}
	if IsKind(err, ErrAccessDenied) {
		t.Error("IsKind(err, ErrAccessDenied) should be false")
	}
	if IsKind(fmt.Errorf("plain error"), ErrNoSuchObject) {
		t.Error("IsKind(plain error, ...) should be false")
	}
}

func TestGetKind(t *testing.T) {
	err := &KernelError{Kind: ErrQueueFull}
	wrapped := fmt.Errorf("wrapped: %w", err)

	kind, ok := GetKind(err)
	if !ok || kind != ErrQueueFull {
		t.Errorf("GetKind(err) = (%v, %v), want (%v, true)", kind, ok, ErrQueueFull)
	}

	kind, ok = GetKind(wrapped)
	if !ok || kind != ErrQueueFull {
		t.Errorf("GetKind(wrapped) = (%v, %v), want (%v, true)", kind, ok, ErrQueueFull)
	}

	_, ok = GetKind(fmt.Errorf("plain error"))
	if ok {
		t.Error("GetKind(plain error) should return false")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *KernelError
		kind ErrorKind
	}{
		{"ErrHandleNotFound", ErrHandleNotFound, ErrInvalidHandle},
		{"ErrSynapseMismatch", ErrSynapseMismatch, ErrAccessDenied},
		{"ErrMutexAbandoned", ErrMutexAbandoned, ErrAbandoned},
		{"ErrPipeBroken", ErrPipeBroken, ErrBrokenPipe},
		{"ErrMQueueFull", ErrMQueueFull, ErrQueueFull},
		{"ErrMQueueEmpty", ErrMQueueEmpty, ErrQueueEmpty},
		{"ErrPayloadTooLarge", ErrPayloadTooLarge, ErrMsgTooLarge},
		{"ErrProcessGone", ErrProcessGone, ErrNoSuchProcess},
		{"ErrHandlerGone", ErrHandlerGone, ErrSyscallHandlerGone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("%s.Kind = %v, want %v", tt.name, tt.err.Kind, tt.kind)
			}
			wrapped := Wrap(fmt.Errorf("underlying"), tt.kind, "test")
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("errors.Is(wrapped, %s) should be true", tt.name)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	underlying := fmt.Errorf("file not found")
	err1 := Wrap(underlying, ErrFileNotFound, "vfs_open")
	err2 := fmt.Errorf("vfs operation failed: %w", err1)

	if !errors.Is(err2, ErrFileMissing) {
		t.Error("errors.Is should find ErrFileMissing in chain")
	}

	var kerr *KernelError
	if !errors.As(err2, &kerr) {
		t.Error("errors.As should find KernelError in chain")
	}
	if kerr.Op != "vfs_open" {
		t.Errorf("kerr.Op = %q, want %q", kerr.Op, "vfs_open")
	}

	if errors.Unwrap(err1) != underlying {
		t.Error("Unwrap should return underlying error")
	}
}
