package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/roach88/wasmpack/internal/process"
)

// StubStep is the scripted behavior of one executable.
type StubStep struct {
	// ExitCode is returned on the Result.
	ExitCode int

	// Err, if set, is returned instead of a Result, as if the process could
	// not be started.
	Err error

	// Files are written (parents created) before the Result is returned,
	// standing in for the artifacts a real tool would produce.
	Files map[string][]byte

	Stdout string
	Stderr string
}

// StubRunner is a process.Runner that never spawns anything.
//
// Executables without a scripted step behave as if they are not installed:
// Run returns an error wrapping exec.ErrNotFound.
//
// Thread-safety: StubRunner is safe for concurrent use via internal mutex.
type StubRunner struct {
	mu    sync.Mutex
	steps map[string]StubStep
	calls []process.Command
}

// NewStubRunner creates a runner with no scripted executables.
func NewStubRunner() *StubRunner {
	return &StubRunner{steps: make(map[string]StubStep)}
}

// On scripts the behavior of the executable called name.
// Returns the runner for chaining.
func (r *StubRunner) On(name string, step StubStep) *StubRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[name] = step
	return r
}

// Run implements process.Runner.
func (r *StubRunner) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	step, ok := r.steps[cmd.Name]
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, &exec.Error{Name: cmd.Name, Err: exec.ErrNotFound}
	}
	if step.Err != nil {
		return nil, step.Err
	}

	for path, data := range step.Files {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("stub %s: %w", cmd.Name, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("stub %s: %w", cmd.Name, err)
		}
	}

	return &process.Result{
		ExitCode: step.ExitCode,
		Stdout:   []byte(step.Stdout),
		Stderr:   []byte(step.Stderr),
	}, nil
}

// Calls returns the commands run so far, in order.
func (r *StubRunner) Calls() []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]process.Command, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallNames returns the executable names run so far, in order.
func (r *StubRunner) CallNames() []string {
	calls := r.Calls()
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return names
}
