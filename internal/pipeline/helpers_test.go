package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wasmpack/internal/config"
	"github.com/roach88/wasmpack/internal/testutil"
)

var (
	// unoptimizedWasm is a module with one empty function type.
	unoptimizedWasm = []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00, 0x01, 0x04, 0x01, 0x60, 0x00, 0x00}

	// optimizedWasm is the bare header, as if the optimizer dropped everything.
	optimizedWasm = []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}
)

// newTestPlan lays out the stock project shape under a temp directory.
func newTestPlan(t *testing.T) *Plan {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.BaseDir = filepath.Join(dir, "bin", "wasm-node", "javascript")
	require.NoError(t, os.MkdirAll(cfg.BaseDir, 0755))

	plan, err := NewPlan(cfg)
	require.NoError(t, err)
	return plan
}

// compilerWrites scripts cargo to succeed and leave payload as the Binary Artifact.
func compilerWrites(plan *Plan, payload []byte) testutil.StubStep {
	return testutil.StubStep{Files: map[string][]byte{plan.Paths.Binary: payload}}
}

// optimizerWrites scripts wasm-opt to succeed and leave payload as the Optimized Artifact.
func optimizerWrites(plan *Plan, payload []byte) testutil.StubStep {
	return testutil.StubStep{Files: map[string][]byte{plan.Paths.Optimized: payload}}
}

// captureReporter records everything a run reports.
type captureReporter struct {
	stages   []Stage
	details  []string
	warnings []string
	causes   []error
	onStage  func(Stage)
}

func (r *captureReporter) Progress(stage Stage, detail string) {
	r.stages = append(r.stages, stage)
	r.details = append(r.details, detail)
	if r.onStage != nil {
		r.onStage(stage)
	}
}

func (r *captureReporter) Warn(message string, err error) {
	r.warnings = append(r.warnings, message)
	r.causes = append(r.causes, err)
}

func assertNotExist(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "%s should not exist (stat err: %v)", path, err)
}
