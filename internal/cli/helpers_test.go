package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wasmpack/internal/journal"
	"github.com/roach88/wasmpack/internal/testutil"
)

var (
	unoptimizedWasm = []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00, 0x01, 0x04, 0x01, 0x60, 0x00, 0x00}
	optimizedWasm   = []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}
)

// testProject is a temp project directory with a wasmpack.yaml that keeps
// every path inside it.
type testProject struct {
	Dir       string
	Binary    string
	Optimized string
	Module    string
}

func newTestProject(t *testing.T, extraYAML string) testProject {
	t.Helper()
	dir := t.TempDir()
	yaml := "target_dir: target\n" + extraYAML
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wasmpack.yaml"), []byte(yaml), 0644))

	return testProject{
		Dir:       dir,
		Binary:    filepath.Join(dir, "target", "wasm32-wasi", "release", "substrate_lite_js.wasm"),
		Optimized: filepath.Join(dir, "autogen", "tmp.wasm"),
		Module:    filepath.Join(dir, "autogen", "wasm.js"),
	}
}

// optimizingRunner scripts a compiler and an optimizer that both succeed.
func (p testProject) optimizingRunner() *testutil.StubRunner {
	return testutil.NewStubRunner().
		On("cargo", testutil.StubStep{Files: map[string][]byte{p.Binary: unoptimizedWasm}}).
		On("wasm-opt", testutil.StubStep{Files: map[string][]byte{p.Optimized: optimizedWasm}})
}

// compileOnlyRunner scripts a compiler and no optimizer at all.
func (p testProject) compileOnlyRunner() *testutil.StubRunner {
	return testutil.NewStubRunner().
		On("cargo", testutil.StubStep{Files: map[string][]byte{p.Binary: unoptimizedWasm}})
}

type buildRun struct {
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	err    error
}

func runBuildCommand(t *testing.T, opts *BuildOptions, args ...string) buildRun {
	t.Helper()
	if opts.IDGenerator == nil {
		opts.IDGenerator = journal.NewSequenceGenerator("run-0001", "run-0002", "run-0003")
	}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewBuildCommandWithOptions(opts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buildRun{stdout: stdout, stderr: stderr, err: err}
}
