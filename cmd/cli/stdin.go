package cli

import (
	"errors"
	"os"

	"github.com/kcaldas/ragpack/pkg/config"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var errNoInput = errors.New("no input: pass a request file or pipe one on stdin")

// hasStdinInput checks if data is available from stdin (pipe or redirect)
func hasStdinInput() bool {
	return !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// readInput decodes the YAML or JSON document named by args, or the one on
// stdin when no file is given.
func readInput(cmd *cobra.Command, args []string, out any) error {
	if len(args) == 1 {
		return config.LoadYAML(args[0], out)
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && f == os.Stdin && !hasStdinInput() {
		return errNoInput
	}
	return config.DecodeYAML(in, out)
}
