package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/kcaldas/ragpack/internal/di"
	"github.com/kcaldas/ragpack/pkg/config"
	"github.com/kcaldas/ragpack/pkg/logging"
	"github.com/kcaldas/ragpack/pkg/packer"
	"github.com/kcaldas/ragpack/pkg/version"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags shared by all subcommands.
type rootOptions struct {
	verbose    bool
	quiet      bool
	configPath string

	logger logging.Logger
	// buildPacker replaces the wired packer when set.
	buildPacker func(configPath string, logger logging.Logger) (*packer.Packer, error)
}

// newPacker builds a packer from the settings file and environment.
func (o *rootOptions) newPacker() (*packer.Packer, error) {
	build := o.buildPacker
	if build == nil {
		build = func(configPath string, logger logging.Logger) (*packer.Packer, error) {
			return di.ProvidePacker(di.SettingsPath(configPath), logger)
		}
	}
	p, err := build(o.configPath, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize packer: %w", err)
	}
	return p, nil
}

// NewRootCommand creates the ragpack command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragpack",
		Short: "Fit retrieved document sections into an LLM context window",
		Long: `ragpack prunes retrieved document sections to the token budget of a model
and merges the surviving sections into one section per document.

Requests are read from a YAML or JSON file, or from stdin when piped.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd, opts)
			logging.SetGlobalLogger(logger)

			// run_id ties together the log lines of one invocation.
			opts.logger = logger.With("run_id", uuid.NewString())
			opts.logger.Debug("starting command", "command", cmd.Name(), "config", opts.configPath)
			return nil
		},
	}
	cmd.SetVersionTemplate("ragpack version {{.Version}}\n")

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output (debug level)")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "quiet output (errors only)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultSettingsFile, "settings file")

	cmd.AddCommand(
		newPackCommand(opts),
		newPruneCommand(opts),
		newMergeRangesCommand(opts),
		newInitConfigCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// newLogger picks the log level from the flags. With RAGPACK_DEBUG_FILE set
// logs go to that file instead of stderr.
func newLogger(cmd *cobra.Command, opts *rootOptions) logging.Logger {
	if os.Getenv("RAGPACK_DEBUG_FILE") != "" {
		return logging.NewFileLoggerFromEnv("ragpack-debug.log")
	}

	level := slog.LevelInfo
	if opts.quiet {
		level = slog.LevelError
	} else if opts.verbose {
		level = slog.LevelDebug
	}
	return logging.NewLogger(logging.Config{
		Level:  level,
		Format: logging.FormatText,
		Output: cmd.ErrOrStderr(),
	})
}

// Execute runs the CLI with all commands
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
