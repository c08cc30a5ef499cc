package ipc

// Signum identifies a POSIX-style signal number.
type Signum int

const (
	SIGHUP  Signum = 1
	SIGINT  Signum = 2
	SIGQUIT Signum = 3
	SIGKILL Signum = 9
	SIGPIPE Signum = 13
	SIGTERM Signum = 15
	SIGCHLD Signum = 17
	SIGCONT Signum = 18
	SIGSTOP Signum = 19
	SIGTSTP Signum = 20
)

// DefaultAction is the disposition a signal has until a handler is
// installed.
type DefaultAction int

const (
	ActionTerm DefaultAction = iota
	ActionIgnore
	ActionStop
	ActionContinue
)

// DefaultActionFor returns the default disposition for a signal number.
func DefaultActionFor(sig Signum) DefaultAction {
	switch sig {
	case SIGCHLD:
		return ActionIgnore
	case SIGTSTP, SIGSTOP:
		return ActionStop
	case SIGCONT:
		return ActionContinue
	default:
		return ActionTerm
	}
}

// Uncatchable reports whether sig bypasses handler dispatch entirely and
// is applied directly to process status.
func Uncatchable(sig Signum) bool {
	return sig == SIGKILL || sig == SIGSTOP
}

// PendingSignal is one queued, not-yet-delivered signal targeting a
// process.
type PendingSignal struct {
	Signum Signum
}

// SignalQueue is a process's queued, per-pid signal list plus its
// handler table and mask. Masked signals are re-queued at the end of
// the queue and delivery stops for the current drain cycle.
type SignalQueue struct {
	pending  []PendingSignal
	Handlers map[Signum]func(Signum) error
	Mask     map[Signum]bool
}

// NewSignalQueue builds an empty queue.
func NewSignalQueue() *SignalQueue {
	return &SignalQueue{
		Handlers: make(map[Signum]func(Signum) error),
		Mask:     make(map[Signum]bool),
	}
}

// Enqueue appends sig to the pending list (FIFO delivery order).
func (q *SignalQueue) Enqueue(sig Signum) {
	q.pending = append(q.pending, PendingSignal{Signum: sig})
}

// SetHandler installs a callback for sig, overriding the default action.
func (q *SignalQueue) SetHandler(sig Signum, cb func(Signum) error) {
	q.Handlers[sig] = cb
}

// SetMask replaces the set of currently masked signals.
func (q *SignalQueue) SetMask(masked []Signum) {
	q.Mask = make(map[Signum]bool, len(masked))
	for _, s := range masked {
		q.Mask[s] = true
	}
}

// DrainResult is one signal's delivery outcome during a drain pass.
type DrainResult struct {
	Signum          Signum
	Handled         bool // a custom handler ran, superseding the default action
	HandlerErr      error
	StopProcess     bool // default action was ActionStop
	ContinueProcess bool
	Terminate       bool // default action was ActionTerm
}

// Drain delivers pending signals in FIFO order until it meets a masked
// one; that signal is re-queued at the end, behind the signals not yet
// delivered, and delivery stops for this cycle per spec §4.6. A handler that returns an error is reported but does not
// stop subsequent delivery within the same cycle.
func (q *SignalQueue) Drain() []DrainResult {
	var results []DrainResult
	var requeue []PendingSignal
	pending := q.pending
	q.pending = nil

	for i, p := range pending {
		if q.Mask[p.Signum] {
			requeue = append(requeue, pending[i+1:]...)
			requeue = append(requeue, p)
			break
		}
		if cb, ok := q.Handlers[p.Signum]; ok && !Uncatchable(p.Signum) {
			err := cb(p.Signum)
			results = append(results, DrainResult{Signum: p.Signum, Handled: true, HandlerErr: err})
			continue
		}
		switch DefaultActionFor(p.Signum) {
		case ActionStop:
			results = append(results, DrainResult{Signum: p.Signum, StopProcess: true})
		case ActionContinue:
			results = append(results, DrainResult{Signum: p.Signum, ContinueProcess: true})
		case ActionIgnore:
			// no-op
		default:
			results = append(results, DrainResult{Signum: p.Signum, Terminate: true})
		}
	}
	q.pending = append(q.pending, requeue...)
	return results
}

// HasPending reports whether any signal is queued.
func (q *SignalQueue) HasPending() bool {
	return len(q.pending) > 0
}
