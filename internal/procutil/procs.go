package procutil

import (
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Registry tracks subprocesses owned by this invocation so cancellation is a
// signal over known handles, never a process-table sweep.
type Registry struct {
	mu    sync.Mutex
	procs map[*exec.Cmd]struct{}
	grace time.Duration
}

// NewRegistry returns a registry using the given grace period between the
// terminate and kill signals.
func NewRegistry(grace time.Duration) *Registry {
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &Registry{procs: make(map[*exec.Cmd]struct{}), grace: grace}
}

// Add registers a started command for later cleanup.
func (r *Registry) Add(cmd *exec.Cmd) {
	r.mu.Lock()
	r.procs[cmd] = struct{}{}
	r.mu.Unlock()
}

// Remove drops a command, typically after it has been waited on.
func (r *Registry) Remove(cmd *exec.Cmd) {
	r.mu.Lock()
	delete(r.procs, cmd)
	r.mu.Unlock()
}

// Len reports the number of tracked processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

// TerminateAll sends SIGTERM to every tracked process, waits for the grace
// period, then SIGKILLs stragglers. A process that is already gone counts as
// success.
func (r *Registry) TerminateAll() {
	r.mu.Lock()
	procs := make([]*exec.Cmd, 0, len(r.procs))
	for c := range r.procs {
		procs = append(procs, c)
	}
	r.procs = make(map[*exec.Cmd]struct{})
	r.mu.Unlock()

	live := procs[:0]
	for _, c := range procs {
		if c == nil || c.Process == nil {
			continue
		}
		_ = c.Process.Signal(syscall.SIGTERM)
		live = append(live, c)
	}
	if len(live) == 0 {
		return
	}
	deadline := time.Now().Add(r.grace)
	for _, c := range live {
		if !waitUntil(c, deadline) {
			_ = c.Process.Kill()
		}
	}
}

// waitUntil polls for process exit until the deadline. The owning goroutine
// calls Wait; here only a liveness probe (signal 0) is used.
func waitUntil(c *exec.Cmd, deadline time.Time) bool {
	for time.Now().Before(deadline) {
		if err := c.Process.Signal(syscall.Signal(0)); err != nil {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return c.Process.Signal(syscall.Signal(0)) != nil
}
