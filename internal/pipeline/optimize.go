package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/wasmpack/internal/artifact"
	"github.com/roach88/wasmpack/internal/process"
)

// Branch records which way the optimize stage went.
type Branch string

const (
	// BranchOptimized means the optimizer wrote the Optimized Artifact.
	BranchOptimized Branch = "optimized"

	// BranchFallbackCopied means the Binary Artifact was copied verbatim.
	BranchFallbackCopied Branch = "fallback_copied"
)

// Stage returns the state machine stage the branch leads to.
func (b Branch) Stage() Stage {
	if b == BranchOptimized {
		return StageOptimized
	}
	return StageFallbackCopied
}

// FallbackWarning is reported when the optimizer fails and the compiler
// output is used as is.
const FallbackWarning = "failed to run the optimizer, using the unoptimized compiler output instead"

// OptimizeResult is the outcome of the optimize stage. Both branches leave
// one readable, non-empty file at Path.
type OptimizeResult struct {
	Branch Branch

	// Path is the Optimized Artifact.
	Path string

	// Size is the Optimized Artifact's size in bytes.
	Size int64

	// Cause is the recovered OptimizationFailure on the fallback branch.
	// It is nil when the optimizer succeeded or was disabled.
	Cause error
}

// Optimize runs the optimizer, or copies the Binary Artifact into place when
// the optimizer is disabled or fails. An optimizer failure is reported to
// reporter as a warning and never returned. The only error returned is an
// IOFailure from the fallback copy.
func Optimize(ctx context.Context, runner process.Runner, plan *Plan, reporter Reporter) (*OptimizeResult, error) {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if plan.SkipOptimize {
		return fallbackCopy(plan, nil)
	}

	// A leftover artifact from an earlier run must not pass for optimizer output.
	if err := os.Remove(plan.Paths.Optimized); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, newIOError(StageOptimized, "removing stale optimized artifact", plan.Paths.Optimized, err)
	}

	cause := runOptimizer(ctx, runner, plan)
	if cause == nil {
		size, err := artifact.StatNonEmpty(plan.Paths.Optimized)
		if err != nil {
			return nil, newIOError(StageOptimized, "reading optimizer output", plan.Paths.Optimized, err)
		}
		return &OptimizeResult{Branch: BranchOptimized, Path: plan.Paths.Optimized, Size: size}, nil
	}

	reporter.Warn(FallbackWarning, cause)
	return fallbackCopy(plan, cause)
}

// runOptimizer returns an OptimizationFailure, or nil if the optimizer left a
// non-empty Optimized Artifact.
func runOptimizer(ctx context.Context, runner process.Runner, plan *Plan) error {
	res, err := runner.Run(ctx, plan.Optimize)
	if err != nil {
		return newOptimizationError(fmt.Sprintf("could not run %s", plan.Optimize.Name), -1, err)
	}
	if !res.Success() {
		return newOptimizationError(
			fmt.Sprintf("%s exited with status %d", plan.Optimize.Name, res.ExitCode),
			res.ExitCode, nil)
	}
	if _, err := artifact.StatNonEmpty(plan.Paths.Optimized); err != nil {
		return newOptimizationError(fmt.Sprintf("%s produced no output", plan.Optimize.Name), 0, err)
	}
	return nil
}

func fallbackCopy(plan *Plan, cause error) (*OptimizeResult, error) {
	size, err := artifact.Copy(plan.Paths.Binary, plan.Paths.Optimized)
	if err != nil {
		return nil, newIOError(StageFallbackCopied, "copying compiler output", plan.Paths.Optimized, err)
	}
	if size == 0 {
		return nil, newIOError(StageFallbackCopied, "copying compiler output", plan.Paths.Optimized, artifact.ErrEmpty)
	}
	return &OptimizeResult{
		Branch: BranchFallbackCopied,
		Path:   plan.Paths.Optimized,
		Size:   size,
		Cause:  cause,
	}, nil
}
