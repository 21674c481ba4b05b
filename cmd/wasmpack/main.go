// Command wasmpack compiles a package to WebAssembly and embeds the binary
// in a generated JavaScript module.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/wasmpack/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// ExitErrors were already reported in the requested format.
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	// Flag parsing and argument errors.
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(cli.ExitCommandError)
}
