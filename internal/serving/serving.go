package serving

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts the container CLI so lifecycle logic is testable
// without a container runtime.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// StartError reports a serving container that failed to start or never became
// ready. Logs holds the last known container output for post-mortem.
type StartError struct {
	Target string
	Logs   string
	Err    error
}

func (e *StartError) Error() string {
	msg := fmt.Sprintf("start %s: %v", e.Target, e.Err)
	if tail := strings.TrimSpace(e.Logs); tail != "" {
		msg += "; logs tail: " + tail
	}
	return msg
}

func (e *StartError) Unwrap() error { return e.Err }
