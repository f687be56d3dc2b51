package cli

import (
	"fmt"

	"github.com/kcaldas/ragpack/pkg/config"
	"github.com/kcaldas/ragpack/pkg/fileops"
	"github.com/spf13/cobra"
)

func newInitConfigCommand(root *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the effective settings to the settings file",
		Long: `Write the settings ragpack would use right now (built-in defaults, the
existing settings file and RAGPACK_* environment overrides) to the file named
by --config, ~/.ragpack/config.yaml by default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(config.NewConfigManager(), root.configPath)
			if err != nil {
				return err
			}

			if err := fileops.NewFileOpsManager().WriteYAML(root.configPath, settings, force); err != nil {
				return fmt.Errorf("failed to write settings: %w", err)
			}

			path, _ := config.ExpandPath(root.configPath)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing settings file")
	return cmd
}
