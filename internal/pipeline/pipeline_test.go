package pipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wasmpack/internal/artifact"
	"github.com/roach88/wasmpack/internal/genmodule"
	"github.com/roach88/wasmpack/internal/testutil"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRun_Optimized(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))
	reporter := &captureReporter{}

	report, err := New(runner, plan, WithReporter(reporter)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Succeeded())
	assert.Equal(t, StageCleanedUp, report.Stage)
	assert.Equal(t, BranchOptimized, report.Branch)
	assert.Nil(t, report.OptimizeCause)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, []string{"cargo", "wasm-opt"}, runner.CallNames())

	content, err := os.ReadFile(plan.Paths.Module)
	require.NoError(t, err)
	assert.True(t, genmodule.Pattern.Match(content))

	payload, err := genmodule.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, optimizedWasm, payload, "payload must be the optimizer's output")
	assert.NotEqual(t, unoptimizedWasm, payload)

	newGolden(t).Assert(t, "optimized_module", content)

	assert.Equal(t, []Stage{StageCompiled, StageOptimized, StageEncoded, StageCleanedUp}, reporter.stages)
}

func TestRun_OptimizerMissingFallsBack(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm))
	reporter := &captureReporter{}

	report, err := New(runner, plan, WithReporter(reporter)).Run(context.Background())
	require.NoError(t, err, "a missing optimizer must never fail the build")

	assert.Equal(t, StageCleanedUp, report.Stage)
	assert.Equal(t, BranchFallbackCopied, report.Branch)
	assert.True(t, IsOptimizationFailure(report.OptimizeCause))
	assert.True(t, errors.Is(report.OptimizeCause, exec.ErrNotFound))

	require.Len(t, reporter.warnings, 1)
	assert.Equal(t, FallbackWarning, reporter.warnings[0])
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "wasm-opt")

	content, err := os.ReadFile(plan.Paths.Module)
	require.NoError(t, err)
	payload, err := genmodule.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, unoptimizedWasm, payload, "fallback payload must be the compiler output")

	newGolden(t).Assert(t, "fallback_module", content)
	assert.Equal(t, []Stage{StageCompiled, StageFallbackCopied, StageEncoded, StageCleanedUp}, reporter.stages)
}

func TestRun_OptimizerNonZeroExitFallsBack(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", testutil.StubStep{ExitCode: 1, Stderr: "[wasm-validator error]"})

	report, err := New(runner, plan).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BranchFallbackCopied, report.Branch)
	var pe *Error
	require.ErrorAs(t, report.OptimizeCause, &pe)
	assert.Equal(t, KindOptimizationFailure, pe.Kind)
	assert.Equal(t, 1, pe.ExitCode)
}

func TestRun_OptimizerPartialOutputIsReplaced(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", testutil.StubStep{
			ExitCode: 134,
			Files:    map[string][]byte{plan.Paths.Optimized: []byte("\x00as")},
		})

	_, err := New(runner, plan).Run(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(plan.Paths.Module)
	require.NoError(t, err)
	payload, err := genmodule.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, unoptimizedWasm, payload)
}

func TestRun_OptimizerSucceedsWithoutOutputFallsBack(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", testutil.StubStep{ExitCode: 0})

	report, err := New(runner, plan).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BranchFallbackCopied, report.Branch)
	assert.True(t, IsOptimizationFailure(report.OptimizeCause))
}

func TestRun_StaleOptimizedArtifactIsNotReused(t *testing.T) {
	plan := newTestPlan(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(plan.Paths.Optimized), 0755))
	require.NoError(t, os.WriteFile(plan.Paths.Optimized, []byte("left over from an earlier run"), 0644))

	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", testutil.StubStep{ExitCode: 0})
	reporter := &captureReporter{}

	report, err := New(runner, plan, WithReporter(reporter)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BranchFallbackCopied, report.Branch)
	assert.True(t, IsOptimizationFailure(report.OptimizeCause))
	require.Len(t, reporter.warnings, 1)

	content, err := os.ReadFile(plan.Paths.Module)
	require.NoError(t, err)
	payload, err := genmodule.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, unoptimizedWasm, payload)
}

func TestOptimize_StaleArtifactNotRemovable(t *testing.T) {
	plan := newTestPlan(t)
	// A non-empty directory at the optimized path cannot be removed.
	require.NoError(t, os.MkdirAll(filepath.Join(plan.Paths.Optimized, "keep"), 0755))
	runner := testutil.NewStubRunner().
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))

	_, err := Optimize(context.Background(), runner, plan, nil)
	require.Error(t, err)
	assert.True(t, IsIOFailure(err))
	assert.Empty(t, runner.Calls(), "the optimizer must not run over an artifact it cannot replace")
}

func TestRun_OptimizerDisabled(t *testing.T) {
	plan := newTestPlan(t)
	plan.SkipOptimize = true
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))
	reporter := &captureReporter{}

	report, err := New(runner, plan, WithReporter(reporter)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BranchFallbackCopied, report.Branch)
	assert.Nil(t, report.OptimizeCause)
	assert.Empty(t, reporter.warnings, "a disabled optimizer is not a warning")
	assert.Equal(t, []string{"cargo"}, runner.CallNames())
}

func TestRun_CompileFailureLeavesModuleUntouched(t *testing.T) {
	plan := newTestPlan(t)
	previous := genmodule.Render([]byte("previous build"))
	require.NoError(t, os.MkdirAll(filepath.Dir(plan.Paths.Module), 0755))
	require.NoError(t, os.WriteFile(plan.Paths.Module, previous, 0644))

	runner := testutil.NewStubRunner().
		On("cargo", testutil.StubStep{ExitCode: 101, Stderr: "error[E0425]"}).
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))

	report, err := New(runner, plan).Run(context.Background())
	require.Error(t, err)

	assert.True(t, IsBuildFailure(err))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 101, pe.ExitCode)
	assert.Contains(t, err.Error(), "status 101")

	assert.Equal(t, StageFailed, report.Stage)
	assert.Equal(t, StageCompiled, report.FailedStage)
	assert.False(t, report.Succeeded())
	assert.Equal(t, []string{"cargo"}, runner.CallNames(), "nothing runs after a failed compile")

	content, err := os.ReadFile(plan.Paths.Module)
	require.NoError(t, err)
	assert.Equal(t, previous, content)
	assertNotExist(t, plan.Paths.Optimized)
}

func TestRun_CompilerMissing(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner()

	report, err := New(runner, plan).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsBuildFailure(err))
	assert.Equal(t, StageFailed, report.Stage)
	assertNotExist(t, plan.Paths.Module)
}

func TestRun_CompilerLeavesNoBinary(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().On("cargo", testutil.StubStep{})

	report, err := New(runner, plan).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsIOFailure(err))
	assert.Equal(t, StageCompiled, report.FailedStage)
	assertNotExist(t, plan.Paths.Module)
}

func TestRun_CleansUpIntermediates(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))

	_, err := New(runner, plan).Run(context.Background())
	require.NoError(t, err)

	assertNotExist(t, plan.Paths.Optimized)
	assertNotExist(t, plan.Paths.Binary)
	_, err = os.Stat(plan.Paths.Module)
	assert.NoError(t, err)
}

func TestRun_KeepBinary(t *testing.T) {
	plan := newTestPlan(t)
	plan.KeepBinary = true
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm))

	_, err := New(runner, plan).Run(context.Background())
	require.NoError(t, err)

	assertNotExist(t, plan.Paths.Optimized)
	data, err := os.ReadFile(plan.Paths.Binary)
	require.NoError(t, err)
	assert.Equal(t, unoptimizedWasm, data)
}

func TestRun_RoundTripLaw(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))

	// Snapshot the Optimized Artifact right after encoding, before Cleanup.
	var beforeCleanup []byte
	reporter := &captureReporter{onStage: func(s Stage) {
		if s == StageEncoded {
			data, err := os.ReadFile(plan.Paths.Optimized)
			require.NoError(t, err)
			beforeCleanup = data
		}
	}}

	_, err := New(runner, plan, WithReporter(reporter)).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, beforeCleanup)

	content, err := os.ReadFile(plan.Paths.Module)
	require.NoError(t, err)
	payload, err := genmodule.Parse(content)
	require.NoError(t, err)

	restored := filepath.Join(t.TempDir(), "restored.wasm")
	require.NoError(t, os.WriteFile(restored, payload, 0644))
	data, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, beforeCleanup, data)
}

func TestRun_Deterministic(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))
	p := New(runner, plan)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	content1, err := os.ReadFile(plan.Paths.Module)
	require.NoError(t, err)

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	content2, err := os.ReadFile(plan.Paths.Module)
	require.NoError(t, err)

	assert.Equal(t, content1, content2)
	assert.Equal(t, first.ModuleDigest, second.ModuleDigest)
}

func TestRun_ReportDigests(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))

	report, err := New(runner, plan).Run(context.Background())
	require.NoError(t, err)

	content := genmodule.Render(optimizedWasm)
	assert.Equal(t, artifact.Digest(artifact.DomainBinary, unoptimizedWasm), report.BinaryDigest)
	assert.Equal(t, artifact.Digest(artifact.DomainOptimized, optimizedWasm), report.OptimizedDigest)
	assert.Equal(t, artifact.Digest(artifact.DomainModule, content), report.ModuleDigest)
	assert.Equal(t, int64(len(unoptimizedWasm)), report.BinarySize)
	assert.Equal(t, int64(len(optimizedWasm)), report.OptimizedSize)
	assert.Equal(t, int64(len(content)), report.ModuleSize)
	assert.Equal(t, plan.Paths.Module, report.ModulePath)
}

func TestRun_PassesPlanCommands(t *testing.T) {
	plan := newTestPlan(t)
	runner := testutil.NewStubRunner().
		On("cargo", compilerWrites(plan, unoptimizedWasm)).
		On("wasm-opt", optimizerWrites(plan, optimizedWasm))

	_, err := New(runner, plan).Run(context.Background())
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, plan.Compile, calls[0])
	assert.Equal(t, plan.Optimize, calls[1])
}
