package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/kcaldas/ragpack/pkg/fileops"
	"github.com/kcaldas/ragpack/pkg/packer"
	"github.com/kcaldas/ragpack/pkg/render"
	"github.com/kcaldas/ragpack/pkg/section"
	"github.com/spf13/cobra"
)

// packOptions are the flags of pack and prune.
type packOptions struct {
	output   string
	outFile  string
	provider string
	model    string
}

func newPackCommand(root *rootOptions) *cobra.Command {
	return newPackingCommand(root, packingCommand{
		use:   "pack [file]",
		short: "Prune sections to the model budget and merge them per document",
		long: `Prune the sections of a request to the document token budget of its model,
then merge the surviving sections so that each document appears once.

Examples:
  ragpack pack request.yaml
  cat request.json | ragpack pack --output json
  ragpack pack request.yaml --output prompt --model gpt-4o`,
		merge: true,
	})
}

func newPruneCommand(root *rootOptions) *cobra.Command {
	return newPackingCommand(root, packingCommand{
		use:   "prune [file]",
		short: "Prune sections to the model budget without merging them",
		long: `Prune the sections of a request to the document token budget of its model.
Sections are returned relevant first, then by score.`,
	})
}

type packingCommand struct {
	use, short, long string
	merge            bool
}

func newPackingCommand(root *rootOptions, def packingCommand) *cobra.Command {
	opts := &packOptions{}

	cmd := &cobra.Command{
		Use:   def.use,
		Short: def.short,
		Long:  def.long,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPacking(cmd, args, root, opts, def.merge)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", formatYAML, "output format: yaml, json, cbor or prompt")
	cmd.Flags().StringVar(&opts.outFile, "out", "", "write the result to this file instead of stdout")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "model provider, overriding the request")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name, overriding the request")
	return cmd
}

func runPacking(cmd *cobra.Command, args []string, root *rootOptions, opts *packOptions, merge bool) error {
	if err := checkFormat(opts.output, formatYAML, formatJSON, formatCBOR, formatPrompt); err != nil {
		return err
	}

	var req packer.Request
	if err := readInput(cmd, args, &req); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	if opts.provider != "" {
		req.Model.Provider = opts.provider
	}
	if opts.model != "" {
		req.Model.Name = opts.model
	}

	p, err := root.newPacker()
	if err != nil {
		return err
	}

	var out []section.Section
	if merge {
		out, err = p.PruneAndMerge(req)
	} else {
		out, err = p.PruneSections(req)
	}
	if err != nil {
		return err
	}

	root.logger.Info("packed sections", "input", len(req.Sections), "output", len(out), "merged", merge)

	var buf bytes.Buffer
	if opts.output == formatPrompt {
		err = writePrompt(&buf, out, req.Pruning.RenderMode)
	} else {
		err = encodeOutput(&buf, opts.output, out)
	}
	if err != nil {
		return err
	}

	if opts.outFile != "" {
		if err := fileops.NewFileOpsManager().WriteFile(opts.outFile, buf.Bytes(), true); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.outFile, err)
		}
		root.logger.Info("wrote result", "path", opts.outFile)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// writePrompt renders the sections the way they are placed into the prompt.
func writePrompt(w io.Writer, sections []section.Section, mode render.Mode) error {
	renderer, err := render.DefaultSet().For(mode)
	if err != nil {
		return err
	}

	var b strings.Builder
	for i, s := range sections {
		rendered, err := renderer.Render(s, i)
		if err != nil {
			return fmt.Errorf("render section %s: %w", s.Center.Key(), err)
		}
		b.WriteString(rendered)
		if mode == render.ModeToolJSON {
			b.WriteString("\n")
		}
	}
	_, err = io.WriteString(w, b.String())
	return err
}
