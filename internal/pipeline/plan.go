package pipeline

import (
	"fmt"

	"github.com/roach88/wasmpack/internal/config"
	"github.com/roach88/wasmpack/internal/process"
)

// Plan is everything a run needs, with all paths absolute.
type Plan struct {
	// Compile is the compiler invocation.
	Compile process.Command

	// Optimize is the optimizer invocation.
	Optimize process.Command

	// SkipOptimize goes straight to the fallback copy without a warning.
	SkipOptimize bool

	// Paths are the run's fixed file locations.
	Paths config.Paths

	// KeepBinary leaves the Binary Artifact in place after Cleanup.
	KeepBinary bool
}

// NewPlan validates cfg and derives a Plan from it.
func NewPlan(cfg *config.Config) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	paths, err := cfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving paths: %w", err)
	}

	return &Plan{
		Compile:      cfg.CompileCommand(paths),
		Optimize:     cfg.OptimizeCommand(paths),
		SkipOptimize: !cfg.Optimizer.Enabled,
		Paths:        paths,
		KeepBinary:   cfg.KeepBinary,
	}, nil
}
