package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/wasmpack/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	Limit   int
	Run     string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded build runs",
		Long: `List the build runs recorded in the journal, newest first.

The journal path comes from --journal, or from the config's journal field.

Example:
  wasmpack history --limit 5
  wasmpack history --run 0190b2d4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal database (overrides config)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs to list (0 = all)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show a single run by ID")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	path := opts.Journal
	if path == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return outputConfigError(formatter, err)
		}
		path = cfg.JournalPath()
	}
	if path == "" {
		return outputError(formatter, ExitCommandError, ErrCodeJournal, "no journal configured: pass --journal or set journal in the config")
	}

	jrnl, err := journal.Open(path)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeJournal, err.Error())
	}
	defer func() {
		if closeErr := jrnl.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	if opts.Run != "" {
		run, err := jrnl.Get(cmd.Context(), opts.Run)
		if errors.Is(err, journal.ErrNotFound) {
			return outputError(formatter, ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run %s not found", opts.Run))
		}
		if err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeJournal, err.Error())
		}
		return outputRun(formatter, run)
	}

	runs, err := jrnl.List(cmd.Context(), opts.Limit)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeJournal, err.Error())
	}
	return outputRuns(formatter, runs)
}

func outputRuns(formatter *OutputFormatter, runs []journal.Run) error {
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tSTATUS\tBRANCH\tMODULE\tERROR")
	for _, run := range runs {
		branch := run.Branch
		if branch == "" {
			branch = "-"
		}
		errKind := run.ErrorKind
		if errKind == "" {
			errKind = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			run.Seq, run.ID, run.Status, branch, FormatBytes(run.ModuleSize), errKind)
	}
	return tw.Flush()
}

func outputRun(formatter *OutputFormatter, run *journal.Run) error {
	if formatter.Format == "json" {
		return formatter.Success(run)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  package:   %s\n", run.Package)
	fmt.Fprintf(w, "  status:    %s (%s)\n", run.Status, run.Stage)
	if run.ErrorKind != "" || run.ErrorMessage != "" {
		fmt.Fprintf(w, "  error:     %s\n", run.ErrorMessage)
	}
	if run.Branch != "" {
		fmt.Fprintf(w, "  branch:    %s\n", run.Branch)
	}
	fmt.Fprintf(w, "  binary:    %s %s\n", FormatBytes(run.BinarySize), run.BinaryDigest)
	fmt.Fprintf(w, "  optimized: %s %s\n", FormatBytes(run.OptimizedSize), run.OptimizedDigest)
	fmt.Fprintf(w, "  module:    %s %s\n", FormatBytes(run.ModuleSize), run.ModuleDigest)
	for _, warning := range run.Warnings {
		fmt.Fprintf(w, "  warning:   %s\n", warning)
	}
	return nil
}
