// Package kerrors provides predefined sentinel errors for common failure cases.
package kerrors

// Handle and object manager errors.
var (
	// ErrHandleNotFound indicates the handle token is not in the caller's table.
	ErrHandleNotFound = &KernelError{Kind: ErrInvalidHandle, Detail: "handle not found"}

	// ErrHandleClosed indicates the handle was already closed.
	ErrHandleClosed = &KernelError{Kind: ErrInvalidHandle, Detail: "handle already closed"}

	// ErrSynapseMismatch indicates the caller's current synapse token does not
	// match the token bound to the handle at creation time.
	ErrSynapseMismatch = &KernelError{Kind: ErrAccessDenied, Detail: "synapse token mismatch"}

	// ErrAccessMaskDenied indicates the handle's access mask lacks the required bits.
	ErrAccessMaskDenied = &KernelError{Kind: ErrAccessDenied, Detail: "access mask does not permit operation"}

	// ErrNameExists indicates ob_insert_object found an existing name.
	ErrNameExists = &KernelError{Kind: ErrAlreadyExists, Detail: "namespace entry already exists"}

	// ErrPathNotFound indicates ob_lookup failed to resolve a path.
	ErrPathNotFound = &KernelError{Kind: ErrNoSuchObject, Detail: "namespace path not found"}

	// ErrDumpRequiresPrivilege indicates a dump_directory call from a ring below 0/1.
	ErrDumpRequiresPrivilege = &KernelError{Kind: ErrAccessDenied, Detail: "dump_directory requires ring 0 or 1"}
)

// Wait dispatcher errors.
var (
	// ErrNotWaitableObject indicates the object resolved by the handle has no dispatch header.
	ErrNotWaitableObject = &KernelError{Kind: ErrNotWaitable, Detail: "object is not waitable"}

	// ErrWaitAboveDispatch indicates the caller's IRQL is at or above DISPATCH_LEVEL.
	ErrWaitAboveDispatch = &KernelError{Kind: ErrCannotBlock, Detail: "cannot block at or above DISPATCH_LEVEL"}

	// ErrWaitTimedOut indicates the wait deadline elapsed unsatisfied.
	ErrWaitTimedOut = &KernelError{Kind: ErrTimeout, Detail: "wait timed out"}

	// ErrMutexAbandoned indicates the mutex's prior owner died while holding it.
	ErrMutexAbandoned = &KernelError{Kind: ErrAbandoned, Detail: "mutex abandoned by dead owner"}
)

// Pipe and VFS errors.
var (
	// ErrPipeBroken indicates a write on a pipe whose read end is closed.
	ErrPipeBroken = &KernelError{Kind: ErrBrokenPipe, Detail: "broken pipe"}

	// ErrFileMissing indicates the raw filesystem or driver reported a missing path.
	ErrFileMissing = &KernelError{Kind: ErrFileNotFound, Detail: "file not found"}

	// ErrPermissionBits indicates the permission map rejected the caller's mode bits.
	ErrPermissionBits = &KernelError{Kind: ErrPermissionDenied, Detail: "permission denied by mode bits"}

	// ErrDriverFailed indicates a device driver returned an unspecified failure.
	ErrDriverFailed = &KernelError{Kind: ErrDriverError, Detail: "device driver error"}
)

// Message queue errors.
var (
	// ErrMQueueFull indicates a non-blocking send found the queue at max_msgs.
	ErrMQueueFull = &KernelError{Kind: ErrQueueFull, Detail: "message queue full"}

	// ErrMQueueEmpty indicates a non-blocking receive found the queue empty.
	ErrMQueueEmpty = &KernelError{Kind: ErrQueueEmpty, Detail: "message queue empty"}

	// ErrPayloadTooLarge indicates a send payload exceeded max_size.
	ErrPayloadTooLarge = &KernelError{Kind: ErrMsgTooLarge, Detail: "payload exceeds configured maximum"}
)

// Process and override errors.
var (
	// ErrProcessGone indicates the target pid is absent or already dead.
	ErrProcessGone = &KernelError{Kind: ErrNoSuchProcess, Detail: "no such process"}

	// ErrOverrideOwned indicates syscall_override was requested for an already-owned name.
	ErrOverrideOwned = &KernelError{Kind: ErrInvalidConfig, Detail: "syscall already overridden by another process"}

	// ErrHandlerGone indicates the override owner died with the request still pending.
	ErrHandlerGone = &KernelError{Kind: ErrSyscallHandlerGone, Detail: "syscall override owner is gone"}

	// ErrNotOverrideOwner indicates syscall_return was called by a process that
	// does not own the override being replied to.
	ErrNotOverrideOwner = &KernelError{Kind: ErrAccessDenied, Detail: "caller does not own this syscall override"}
)
