package pipeline

import "os"

// Cleanup removes the Optimized Artifact and, unless plan.KeepBinary is
// set, the Binary Artifact. A file that is already gone is an IOFailure.
func Cleanup(plan *Plan) error {
	if err := os.Remove(plan.Paths.Optimized); err != nil {
		return newIOError(StageCleanedUp, "removing optimized artifact", plan.Paths.Optimized, err)
	}
	if plan.KeepBinary {
		return nil
	}
	if err := os.Remove(plan.Paths.Binary); err != nil {
		return newIOError(StageCleanedUp, "removing binary artifact", plan.Paths.Binary, err)
	}
	return nil
}
