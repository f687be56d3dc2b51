package cli

import (
	"fmt"

	"github.com/kcaldas/ragpack/pkg/merge"
	"github.com/kcaldas/ragpack/pkg/section"
	"github.com/spf13/cobra"
)

// rangesInput is the document read by merge-ranges.
type rangesInput struct {
	Ranges []section.ChunkRange `yaml:"ranges"`
}

func newMergeRangesCommand(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge-ranges [file]",
		Short: "Merge overlapping or touching chunk ranges of one document",
		Long: `Merge the chunk ranges of one document into the smallest set of ranges
covering the same chunk ids. Ranges that touch, like 0-2 and 3-5, are merged.

The input is a YAML or JSON document with a "ranges" list of {start, end}
objects, each optionally carrying the chunks that requested it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatYAML, formatJSON, formatCBOR); err != nil {
				return err
			}

			var in rangesInput
			if err := readInput(cmd, args, &in); err != nil {
				return fmt.Errorf("failed to read ranges: %w", err)
			}

			merged, err := merge.MergeChunkIntervals(in.Ranges)
			if err != nil {
				return err
			}
			root.logger.Debug("merged chunk ranges", "input", len(in.Ranges), "output", len(merged))

			return writeOutput(cmd, output, rangesInput{Ranges: merged})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatYAML, "output format: yaml, json or cbor")
	return cmd
}
