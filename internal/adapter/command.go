package adapter

import (
	"context"
	"errors"
	"os/exec"
)

// CommandResult is the outcome of a command that was started.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
}

// Success reports a zero exit status.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandRunner executes external programs. An error means the program
// could not be started at all; a non-zero exit is reported in the result.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and captures stdout.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return CommandResult{ExitCode: exitErr.ExitCode(), Stdout: out}, nil
		}
		return CommandResult{ExitCode: -1}, err
	}
	return CommandResult{Stdout: out}, nil
}
