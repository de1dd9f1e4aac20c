// Package exec provides abstractions for running external tools such as the az CLI.
// Callers depend on the interfaces so tests can substitute a mock.
package exec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// CommandExecutor runs a command and captures its output.
type CommandExecutor interface {
	// Execute runs a command with the given context and arguments.
	// Returns stdout, stderr, and any error that occurred.
	Execute(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// InteractiveRunner runs a command attached to the user's terminal.
// Used for flows such as `az login` that prompt or open a browser.
type InteractiveRunner interface {
	RunInteractive(ctx context.Context, name string, args ...string) error
}

// Executor combines captured and interactive execution.
type Executor interface {
	CommandExecutor
	InteractiveRunner
}

// RealCommandExecutor executes actual commands using os/exec.
type RealCommandExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Execute runs an actual command with output captured.
func (r *RealCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// RunInteractive runs a command wired to the process's standard streams
// unless the executor overrides them.
func (r *RealCommandExecutor) RunInteractive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = orDefault(r.Stdin, os.Stdin)
	cmd.Stdout = orDefaultWriter(r.Stdout, os.Stdout)
	cmd.Stderr = orDefaultWriter(r.Stderr, os.Stderr)
	return cmd.Run()
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultWriter(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// ExitCode extracts the exit status from an error returned by Execute or
// RunInteractive. It returns 0 for nil and -1 when the process never ran.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// DefaultExecutor returns the standard production executor.
func DefaultExecutor() Executor {
	return &RealCommandExecutor{}
}
