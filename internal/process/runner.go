package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external process invocation.
type Command struct {
	// Name is the executable, looked up on PATH when it has no separator.
	Name string

	// Args are passed verbatim, without shell interpretation.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// String renders the command line the way an operator would type it.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a process that was started.
type Result struct {
	// ExitCode is the process exit code. 0 indicates success.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout []byte

	// Stderr is the captured standard error.
	Stderr []byte
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner executes external commands.
//
// Run returns an error only when the process could not be started or waited
// on (missing executable, permission denied, cancelled context). A process
// that ran and exited non-zero is reported through Result.ExitCode with a nil
// error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stdout and Stderr receive the child's output as it is written.
	// Nil writers fall back to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner that inherits the parent's streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("command name is empty")
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = os.Stdin

	var stdout, stderr bytes.Buffer
	c.Stdout = io.MultiWriter(&stdout, orDefault(r.Stdout, os.Stdout))
	c.Stderr = io.MultiWriter(&stderr, orDefault(r.Stderr, os.Stderr))

	err := c.Run()

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("running %s: %w", cmd.Name, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("running %s: %w", cmd.Name, ctxErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		ExitCode: exitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}

func orDefault(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
