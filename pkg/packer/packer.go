// Package packer fits retrieved sections into the document budget of a model
// and merges what survives into one section per document.
package packer

import (
	"fmt"

	"github.com/kcaldas/ragpack/pkg/budget"
	"github.com/kcaldas/ragpack/pkg/config"
	"github.com/kcaldas/ragpack/pkg/logging"
	"github.com/kcaldas/ragpack/pkg/merge"
	"github.com/kcaldas/ragpack/pkg/prune"
	"github.com/kcaldas/ragpack/pkg/render"
	"github.com/kcaldas/ragpack/pkg/section"
)

// Packer composes federated splitting, pruning and merging. It holds no per
// call state and is safe for concurrent use.
type Packer struct {
	tokenizers        budget.TokenizerSource
	maxDocumentTokens budget.MaxDocumentTokensFunc
	settings          config.Settings
	renderers         render.Set
	merger            *merge.Merger
	logger            logging.Logger
}

// New creates a packer. A nil logger uses the global component logger.
func New(tokenizers budget.TokenizerSource, maxDocumentTokens budget.MaxDocumentTokensFunc, settings config.Settings, logger logging.Logger) *Packer {
	if logger == nil {
		logger = logging.NewComponentLogger("packer")
	}
	return &Packer{
		tokenizers:        tokenizers,
		maxDocumentTokens: maxDocumentTokens,
		settings:          settings,
		renderers:         render.DefaultSet(),
		merger:            merge.NewMerger(logger.With("stage", "merge")),
		logger:            logger,
	}
}

// WithRenderers returns a copy of the packer measuring sections with set.
func (p *Packer) WithRenderers(set render.Set) *Packer {
	clone := *p
	clone.renderers = set
	return &clone
}

// PruneSections returns the sections of req that fit the document budget of
// the model. Up to the configured number of federated sections are kept
// ahead of the others, and an explicit chunk cap is raised by one chunk for
// each of them.
func (p *Packer) PruneSections(req Request) ([]section.Section, error) {
	if err := req.Pruning.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", budget.ErrConfiguration, err)
	}
	model := p.model(req.Model)

	tokenizer, err := p.tokenizers.Get(model.Provider, model.Name)
	if err != nil {
		return nil, err
	}

	federated, normal, relevance, err := prune.SplitFederated(normalized(req.Sections), req.Relevance, p.settings.MaxFederatedSections)
	if err != nil {
		return nil, err
	}

	caps := budget.Caps{
		MaxWindowPercentage: req.Pruning.MaxWindowPercentage,
		MaxTokens:           req.Pruning.MaxTokens,
	}
	if req.Pruning.MaxChunks != nil && *req.Pruning.MaxChunks > 0 {
		chunks := *req.Pruning.MaxChunks*req.Pruning.chunkMultiple() + len(federated)
		caps.MaxChunks = &chunks
	}

	base := p.maxDocumentTokens(req.Prompt, model, req.Pruning.ToolNumTokens, req.Question)
	limit, err := budget.Limit(base, caps, p.settings.EmbeddingChunkSize)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("pruning sections",
		"sections", len(req.Sections),
		"federated", len(federated),
		"model", model.Provider+"/"+model.Name,
		"document_tokens", base,
		"token_limit", limit)

	pruner := prune.NewPruner(tokenizer,
		prune.WithRenderers(p.renderers),
		prune.WithEmbeddingChunkSize(p.settings.EmbeddingChunkSize),
		prune.WithLogger(p.logger.With("stage", "prune")))

	return pruner.Apply(normal, relevance, prune.Options{
		Keep:                   federated,
		Budget:                 limit,
		IsManuallySelectedDocs: req.Pruning.IsManuallySelectedDocs,
		UseSections:            req.Pruning.UseSections,
		RenderMode:             req.Pruning.RenderMode,
	})
}

// PruneAndMerge prunes req and merges the survivors into one section per
// document, ordered by each document's best score.
func (p *Packer) PruneAndMerge(req Request) ([]section.Section, error) {
	pruned, err := p.PruneSections(req)
	if err != nil {
		return nil, err
	}
	return p.merger.Merge(pruned)
}

func (p *Packer) model(m budget.ModelConfig) budget.ModelConfig {
	if m.Name == "" {
		m.Name = p.settings.DefaultModel
		if m.Provider == "" {
			m.Provider = p.settings.DefaultProvider
		}
	}
	return m
}

// normalized lifts the reserved metadata marker of every chunk into its
// typed flag. The caller's sections are left as they are.
func normalized(sections []section.Section) []section.Section {
	out := make([]section.Section, len(sections))
	for i, s := range sections {
		out[i] = section.Section{
			Center:          s.Center.Normalize(),
			Chunks:          make([]section.Chunk, len(s.Chunks)),
			CombinedContent: s.CombinedContent,
		}
		for j, c := range s.Chunks {
			out[i].Chunks[j] = c.Normalize()
		}
	}
	return out
}
