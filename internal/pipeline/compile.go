package pipeline

import (
	"context"
	"fmt"

	"github.com/roach88/wasmpack/internal/artifact"
	"github.com/roach88/wasmpack/internal/process"
)

// Compile runs the compiler and checks that it left a Binary Artifact.
// It returns the artifact's size.
//
// A compiler that cannot be started or exits non-zero is a BuildFailure.
// Nothing is retried: a broken compilation cannot be repaired here.
func Compile(ctx context.Context, runner process.Runner, plan *Plan) (int64, error) {
	res, err := runner.Run(ctx, plan.Compile)
	if err != nil {
		return 0, newBuildError(fmt.Sprintf("could not run %s", plan.Compile.Name), -1, err)
	}
	if !res.Success() {
		return 0, newBuildError(
			fmt.Sprintf("%s exited with status %d", plan.Compile.Name, res.ExitCode),
			res.ExitCode, nil)
	}

	size, err := artifact.StatNonEmpty(plan.Paths.Binary)
	if err != nil {
		return 0, newIOError(StageCompiled, "compiler output is missing", plan.Paths.Binary, err)
	}
	return size, nil
}
