// Package shell provides the external command executor adapter.
package shell

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Executor implements ports.Executor using os/exec. Commands are always
// invoked with explicit argument vectors; nothing is routed through a local
// shell, so caller-controlled values cannot be reinterpreted.
type Executor struct {
	logger ports.Logger
}

var _ ports.Executor = (*Executor)(nil)

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Run executes name with args and returns the combined output and exit
// status. A nonzero exit is not an error here; phase logic decides what a
// given status means.
func (e *Executor) Run(ctx context.Context, name string, args ...string) (ports.ExecResult, error) {
	e.logger.Debug("running command", "cmd", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // argv assembled by callers, never shell-parsed
	out, err := cmd.CombinedOutput()
	result := ports.ExecResult{Output: string(out)}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			e.logger.Debug("command exited nonzero", "cmd", name, "exit_code", result.ExitCode)
			return result, nil
		}
		return result, zerr.With(zerr.Wrap(err, "command failed to run"), "cmd", name)
	}
	return result, nil
}
