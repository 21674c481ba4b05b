package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/wasmpack/internal/config"
	"github.com/roach88/wasmpack/internal/journal"
	"github.com/roach88/wasmpack/internal/pipeline"
	"github.com/roach88/wasmpack/internal/process"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Journal      string
	SkipOptimize bool
	KeepBinary   bool

	// Runner allows overriding the process runner (for testing).
	// If nil, defaults to an ExecRunner wired to the command's streams.
	Runner process.Runner

	// IDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator journal.IDGenerator
}

// BuildOutput is the result of a successful build.
type BuildOutput struct {
	Package         string   `json:"package"`
	Module          string   `json:"module"`
	Branch          string   `json:"branch"`
	BinarySize      int64    `json:"binary_size"`
	OptimizedSize   int64    `json:"optimized_size"`
	ModuleSize      int64    `json:"module_size"`
	OptimizedDigest string   `json:"optimized_digest"`
	ModuleDigest    string   `json:"module_digest"`
	Unchanged       bool     `json:"unchanged"`
	Warnings        []string `json:"warnings"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	return NewBuildCommandWithOptions(&BuildOptions{RootOptions: rootOpts})
}

// NewBuildCommandWithOptions creates the build command around existing options.
func NewBuildCommandWithOptions(opts *BuildOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile, optimize and embed the WebAssembly binary",
		Long: `Run the build pipeline:

  1. compile the package (e.g. cargo +1.48.0 build --target wasm32-wasi ...)
  2. optimize it with wasm-opt, or copy it unchanged if wasm-opt is missing
     or fails
  3. write the generated module: export default "<base64>";
  4. remove the intermediate binaries

A compiler failure or any file error exits non-zero and leaves an existing
generated module untouched. An optimizer failure is only a warning.

Example:
  wasmpack build
  wasmpack build --config wasmpack.cue --journal .wasmpack/journal.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the run in this journal database (overrides config)")
	cmd.Flags().BoolVar(&opts.SkipOptimize, "skip-optimize", false, "do not run the optimizer")
	cmd.Flags().BoolVar(&opts.KeepBinary, "keep-binary", false, "keep the compiler output after the build")

	return cmd
}

func runBuild(opts *BuildOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return outputConfigError(formatter, err)
	}
	if opts.SkipOptimize {
		cfg.Optimizer.Enabled = false
	}
	if opts.KeepBinary {
		cfg.KeepBinary = true
	}
	if opts.Journal != "" {
		cfg.Journal = opts.Journal
	}
	if cfg.Source != "" {
		formatter.VerboseLog("Using config %s", cfg.Source)
	}

	plan, err := pipeline.NewPlan(cfg)
	if err != nil {
		return outputConfigError(formatter, err)
	}

	// Open the journal before touching any file so an unusable journal
	// aborts the build cleanly.
	var jrnl *journal.Journal
	if path := cfg.JournalPath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeJournal, fmt.Sprintf("creating journal directory: %v", err))
		}
		jrnl, err = journal.Open(path)
		if err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeJournal, err.Error())
		}
		defer func() {
			if closeErr := jrnl.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		formatter.VerboseLog("Recording run in %s", path)
	}

	runner := opts.Runner
	if runner == nil {
		runner = &process.ExecRunner{
			Stdout: childStdout(formatter),
			Stderr: cmd.ErrOrStderr(),
		}
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	formatter.VerboseLog("Compiling: %s", plan.Compile)
	report, runErr := pipeline.New(runner, plan, pipeline.WithReporter(formatter)).Run(ctx)

	var previous *journal.Run
	if jrnl != nil {
		// An interrupted run is still recorded.
		jctx := context.WithoutCancel(ctx)
		previous, err = jrnl.LatestSuccess(jctx, cfg.Package)
		if err != nil && !errors.Is(err, journal.ErrNotFound) {
			return outputError(formatter, ExitCommandError, ErrCodeJournal, err.Error())
		}

		gen := opts.IDGenerator
		if gen == nil {
			gen = journal.UUIDv7Generator{}
		}
		run := journal.NewRun(gen.Generate(), cfg.Package, report, runErr)
		if _, err := jrnl.Record(jctx, run); err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeJournal, err.Error())
		}
		formatter.RunID = run.ID
	}

	if runErr != nil {
		return outputPipelineError(formatter, runErr)
	}

	out := BuildOutput{
		Package:         cfg.Package,
		Module:          displayPath(cfg.BaseDir, report.ModulePath),
		Branch:          string(report.Branch),
		BinarySize:      report.BinarySize,
		OptimizedSize:   report.OptimizedSize,
		ModuleSize:      report.ModuleSize,
		OptimizedDigest: report.OptimizedDigest,
		ModuleDigest:    report.ModuleDigest,
		Unchanged:       previous != nil && previous.ModuleDigest == report.ModuleDigest,
		Warnings:        report.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return outputBuildSuccess(formatter, out)
}

func outputBuildSuccess(formatter *OutputFormatter, out BuildOutput) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Built %s\n\n", out.Module)
	fmt.Fprintf(w, "  binary:    %s\n", FormatBytes(out.BinarySize))
	if out.Branch == string(pipeline.BranchOptimized) {
		fmt.Fprintf(w, "  optimized: %s\n", FormatBytes(out.OptimizedSize))
	} else {
		fmt.Fprintf(w, "  optimized: %s (unoptimized copy)\n", FormatBytes(out.OptimizedSize))
	}
	fmt.Fprintf(w, "  module:    %s\n", FormatBytes(out.ModuleSize))
	if formatter.RunID != "" {
		fmt.Fprintf(w, "  run:       %s\n", formatter.RunID)
	}
	if out.Unchanged {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Module content is unchanged since the last successful run.")
	}
	return nil
}

// outputPipelineError reports a failed run. Pipeline failures exit 1.
func outputPipelineError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		code = string(pe.Kind)
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, "build failed", err)
}

// outputConfigError reports an unusable configuration. Config errors exit 2.
func outputConfigError(formatter *OutputFormatter, err error) error {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		_ = formatter.Error(ErrCodeConfig, cfgErr.Error(), map[string]string{"field": cfgErr.Field})
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid config", err)
}

// outputError reports a single command error.
func outputError(formatter *OutputFormatter, exitCode int, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
}

// childStdout keeps tool output off stdout when stdout carries JSON.
func childStdout(formatter *OutputFormatter) io.Writer {
	if formatter.Format == "json" {
		return formatter.GetErrWriter()
	}
	return formatter.Writer
}

// displayPath shows path relative to base when it lies inside base.
func displayPath(base, path string) string {
	if base == "" {
		return path
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(abs, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so a running
// compiler is stopped with the build.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
