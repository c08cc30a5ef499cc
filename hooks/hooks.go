// Package hooks implements process lifecycle hooks: pre-spawn/post-exit
// callbacks the kernel runs at well-defined process lifecycle points,
// adapted from the OCI container lifecycle hook mechanism into in-process
// Go callbacks (no external hook binaries — this kernel has no bundle or
// config.json to invoke one against).
package hooks

import (
	"fmt"

	"kexec-go/logging"
)

// Point identifies a process lifecycle event a hook may run at.
type Point string

const (
	// PreSpawn runs just before a new process descriptor is inserted
	// into the process table.
	PreSpawn Point = "pre_spawn"

	// PostSpawn runs once the new process is ready and has its synapse
	// token.
	PostSpawn Point = "post_spawn"

	// ChildDeath runs when a child process dies, mirroring SIGCHLD
	// notification delivered to the parent.
	ChildDeath Point = "child_death"

	// WatchdogStrike runs each time the scheduler records a watchdog
	// strike against a runaway process, before any SIGTERM/SIGKILL.
	WatchdogStrike Point = "watchdog_strike"

	// PostExit runs after a process is marked dead, before it is reaped.
	PostExit Point = "post_exit"
)

// Event carries the process lifecycle data a hook callback needs. Not
// every field is populated at every Point (e.g. ExitCode is meaningless
// at PreSpawn).
type Event struct {
	Pid       int
	ParentPid int
	Ring      int
	ExitCode  int
	Uptime    float64
	Strikes   int
}

// Hook is a user-supplied callback run at a lifecycle Point.
type Hook func(Event) error

// Registry holds every registered hook, grouped by the Point they run
// at, and runs them in registration order.
type Registry struct {
	hooks map[Point][]Hook
}

// NewRegistry builds an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[Point][]Hook)}
}

// Register appends h to the list run at point.
func (r *Registry) Register(point Point, h Hook) {
	r.hooks[point] = append(r.hooks[point], h)
}

// Run executes every hook registered at point, in registration order. A
// failing hook is logged and does not stop the remaining hooks from
// running, matching the kernel's general policy of never letting a
// single callback failure take down the caller.
func (r *Registry) Run(point Point, event Event) {
	for _, h := range r.hooks[point] {
		if err := h(event); err != nil {
			logging.Error(fmt.Sprintf("%s hook failed", point),
				"pid", event.Pid, "error", err)
		}
	}
}
