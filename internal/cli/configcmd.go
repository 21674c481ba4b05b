package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wasmpack/internal/config"
	"github.com/roach88/wasmpack/internal/pipeline"
)

// ConfigOutput is the resolved configuration.
type ConfigOutput struct {
	Source   string         `json:"source"`
	Config   *config.Config `json:"config"`
	Paths    config.Paths   `json:"paths"`
	Compile  string         `json:"compile"`
	Optimize string         `json:"optimize,omitempty"`
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved build configuration",
		Long: `Load and validate the configuration, then print the resolved paths and
the exact compiler and optimizer command lines a build would run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(rootOpts, cmd)
		},
	}
	return cmd
}

func runConfig(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return outputConfigError(formatter, err)
	}
	plan, err := pipeline.NewPlan(cfg)
	if err != nil {
		return outputConfigError(formatter, err)
	}

	out := ConfigOutput{
		Source:  cfg.Source,
		Config:  cfg,
		Paths:   plan.Paths,
		Compile: plan.Compile.String(),
	}
	if !plan.SkipOptimize {
		out.Optimize = plan.Optimize.String()
	}
	if out.Source == "" {
		out.Source = "(defaults)"
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Config: %s\n\n", out.Source)
	fmt.Fprintf(w, "Package: %s (%s, %s)\n", cfg.Package, cfg.Target, cfg.Profile)
	fmt.Fprintln(w, "Paths:")
	fmt.Fprintf(w, "  source root: %s\n", out.Paths.SourceRoot)
	fmt.Fprintf(w, "  binary:      %s\n", out.Paths.Binary)
	fmt.Fprintf(w, "  optimized:   %s\n", out.Paths.Optimized)
	fmt.Fprintf(w, "  module:      %s\n", out.Paths.Module)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintf(w, "  compile:  %s\n", out.Compile)
	if out.Optimize != "" {
		fmt.Fprintf(w, "  optimize: %s\n", out.Optimize)
	} else {
		fmt.Fprintln(w, "  optimize: (disabled)")
	}
	if journal := cfg.JournalPath(); journal != "" {
		fmt.Fprintf(w, "Journal: %s\n", journal)
	}
	return nil
}
