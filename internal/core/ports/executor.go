package ports

import "context"

// ExecResult carries the observed outcome of one external command.
type ExecResult struct {
	ExitCode int
	Output   string
}

// Executor defines the interface for running external commands with
// parameterized argument vectors. Implementations must never pass caller
// input through a shell.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes name with args. A nonzero exit status is reported via
	// ExecResult, not as an error; the error return is reserved for
	// failures to run the command at all.
	Run(ctx context.Context, name string, args ...string) (ExecResult, error)
}
