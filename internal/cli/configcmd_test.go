package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runConfigCommand(t *testing.T, root *RootOptions) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewConfigCommand(root)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfig_Defaults(t *testing.T) {
	dir := t.TempDir()

	output, err := runConfigCommand(t, &RootOptions{Format: "text", Dir: dir})
	require.NoError(t, err)
	assert.Contains(t, output, "Config: (defaults)")
	assert.Contains(t, output, "cargo +1.48.0 build --package substrate-lite-js --target wasm32-wasi --no-default-features --release")
	assert.Contains(t, output, "wasm-opt -o "+filepath.Join(dir, "autogen", "tmp.wasm")+" -Os --strip-debug --vacuum --dce")
	assert.Contains(t, output, filepath.Join(dir, "autogen", "wasm.js"))
}

func TestConfig_DisabledOptimizer(t *testing.T) {
	project := newTestProject(t, "optimizer:\n  enabled: false\n")

	output, err := runConfigCommand(t, &RootOptions{Format: "text", Dir: project.Dir})
	require.NoError(t, err)
	assert.Contains(t, output, "optimize: (disabled)")
}

func TestConfig_JSON(t *testing.T) {
	project := newTestProject(t, "profile: debug\n")

	output, err := runConfigCommand(t, &RootOptions{Format: "json", Dir: project.Dir})
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ConfigOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, filepath.Join(project.Dir, "wasmpack.yaml"), resp.Data.Source)
	assert.Equal(t, "debug", resp.Data.Config.Profile)
	assert.Equal(t, filepath.Join(project.Dir, "target", "wasm32-wasi", "debug", "substrate_lite_js.wasm"), resp.Data.Paths.Binary)
	assert.NotContains(t, resp.Data.Compile, "--release")
}

func TestConfig_InvalidCUE(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wasmpack.cue")
	require.NoError(t, os.WriteFile(path, []byte(`optimizer: level: "O9"`+"\n"), 0644))

	output, err := runConfigCommand(t, &RootOptions{Format: "text", Config: path})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "Error [E010]")
}
