package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/wasmpack/internal/artifact"
	"github.com/roach88/wasmpack/internal/genmodule"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Out string
}

// InspectOutput describes a generated module's payload.
type InspectOutput struct {
	Module      string `json:"module"`
	ModuleSize  int64  `json:"module_size"`
	PayloadSize int64  `json:"payload_size"`
	SHA256      string `json:"sha256"`
	Wasm        bool   `json:"wasm"`
	Out         string `json:"out,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <module>",
		Short: "Verify a generated module and describe its payload",
		Long: `Check that a generated module has the exact form
export default "<base64>"; and report the decoded payload's size and SHA-256.

With --out, the decoded payload is written to a file, which must be
byte-identical to the binary that was embedded.

Example:
  wasmpack inspect autogen/wasm.js
  wasmpack inspect autogen/wasm.js --out /tmp/check.wasm`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the decoded payload to this file")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	content, err := os.ReadFile(path)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("reading module: %v", err))
	}

	payload, err := genmodule.Parse(content)
	if err != nil {
		var pe *genmodule.ParseError
		if errors.As(err, &pe) {
			return outputError(formatter, ExitFailure, ErrCodeModuleInvalid, pe.Error())
		}
		return outputError(formatter, ExitFailure, ErrCodeModuleInvalid, err.Error())
	}

	out := InspectOutput{
		Module:      path,
		ModuleSize:  int64(len(content)),
		PayloadSize: int64(len(payload)),
		SHA256:      artifact.Sum(payload),
		Wasm:        artifact.IsWasm(payload),
	}

	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, payload, 0644); err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing payload: %v", err))
		}
		out.Out = opts.Out
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s is a valid generated module\n\n", out.Module)
	fmt.Fprintf(w, "  module:  %s\n", FormatBytes(out.ModuleSize))
	fmt.Fprintf(w, "  payload: %s\n", FormatBytes(out.PayloadSize))
	fmt.Fprintf(w, "  sha256:  %s\n", out.SHA256)
	if out.Wasm {
		fmt.Fprintln(w, "  format:  WebAssembly")
	} else {
		fmt.Fprintln(w, "  format:  unknown (no \\0asm magic)")
	}
	if out.Out != "" {
		fmt.Fprintf(w, "\nWrote payload to %s\n", out.Out)
	}
	return nil
}
