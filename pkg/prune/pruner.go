package prune

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kcaldas/ragpack/pkg/logging"
	"github.com/kcaldas/ragpack/pkg/render"
	"github.com/kcaldas/ragpack/pkg/section"
	"github.com/kcaldas/ragpack/pkg/tokens"
)

const (
	// MetadataTokenEstimate approximates the title and metadata header
	// rendered around a section's content.
	MetadataTokenEstimate = 75
	// OvercountEstimate is extra slack for tool message JSON. A section
	// exceeding the chunk size by less than this is assumed to carry only
	// wrapper overhead and is trimmed without a warning.
	OvercountEstimate = 256
	// DefaultEmbeddingChunkSize is the chunk size of the embedding model.
	DefaultEmbeddingChunkSize = 512
)

var (
	// ErrContextOverflow means manually selected documents do not fit and
	// some of them would have to be dropped entirely.
	ErrContextOverflow = errors.New("LLM context window exceeded. Please de-select some documents or shorten your query")
	// ErrRelevanceMismatch means the relevance list is not aligned with the sections.
	ErrRelevanceMismatch = errors.New("relevance list length does not match sections")
)

// Options control a single pruning pass.
type Options struct {
	// Keep lists sections that precede all others and count as relevant.
	Keep []section.Section
	// Budget is the token limit for all rendered sections.
	Budget int
	// IsManuallySelectedDocs marks sections the user picked explicitly.
	IsManuallySelectedDocs bool
	// UseSections marks sections spanning several chunks, which may be
	// truncated at the boundary instead of dropped.
	UseSections bool
	// RenderMode is how the sections will appear in the prompt.
	RenderMode render.Mode
}

// Pruner decides which sections fit a token budget.
type Pruner struct {
	tokenizer          tokens.Tokenizer
	renderers          render.Set
	embeddingChunkSize int
	logger             logging.Logger
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithRenderers replaces the renderers used to measure sections.
func WithRenderers(set render.Set) Option {
	return func(p *Pruner) { p.renderers = set }
}

// WithEmbeddingChunkSize sets the chunk size of the embedding model.
func WithEmbeddingChunkSize(size int) Option {
	return func(p *Pruner) {
		if size > 0 {
			p.embeddingChunkSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Pruner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPruner creates a pruner counting tokens with tokenizer.
func NewPruner(tokenizer tokens.Tokenizer, opts ...Option) *Pruner {
	p := &Pruner{
		tokenizer:          tokenizer,
		renderers:          render.DefaultSet(),
		embeddingChunkSize: DefaultEmbeddingChunkSize,
		logger:             logging.NewComponentLogger("prune"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply prunes sections, assumed ordered by descending score, to fit
// opts.Budget. relevance, when not nil, is aligned with sections.
//
// Sections are cloned first; the caller's values are never modified. At most
// one surviving section has its content shortened: the one crossing the
// budget, or the only section when a single chunk already overflows.
func (p *Pruner) Apply(sections []section.Section, relevance []bool, opts Options) ([]section.Section, error) {
	if relevance != nil && len(relevance) != len(sections) {
		return nil, fmt.Errorf("%w: %d sections, %d relevance flags", ErrRelevanceMismatch, len(sections), len(relevance))
	}
	renderer, err := p.renderers.For(opts.RenderMode)
	if err != nil {
		return nil, err
	}

	working := append(section.CloneAll(opts.Keep), section.CloneAll(sections)...)

	var flags []bool
	if relevance != nil {
		flags = make([]bool, 0, len(working))
		for range opts.Keep {
			flags = append(flags, true)
		}
		flags = append(flags, relevance...)
	}

	relevantByID := make(map[string]bool, len(flags))
	for i, rel := range flags {
		relevantByID[working[i].Center.Key()] = rel
	}

	working = relevantFirst(working, flags)
	working = withoutIgnored(working)

	counts := make([]int, 0, len(working))
	total := 0
	boundary := -1
	for i := range working {
		s := &working[i]
		rendered, err := renderer.Render(*s, i)
		if err != nil {
			return nil, fmt.Errorf("render section %s: %w", s.Center.Key(), err)
		}

		count := tokens.Count(p.tokenizer, rendered)
		// A single chunk can outgrow the embedding chunk size when the LLM
		// tokenizer differs from the embedding one.
		if !opts.IsManuallySelectedDocs && !opts.UseSections && count > p.embeddingChunkSize+MetadataTokenEstimate {
			if count > p.embeddingChunkSize+MetadataTokenEstimate+OvercountEstimate {
				p.logger.Warn("section has more tokens than expected, likely a mismatch between embedding and LLM tokenizers; trimming content",
					"section", s.Center.Key(), "tokens", count)
			}
			s.CombinedContent = tokens.Trim(p.tokenizer, s.CombinedContent, p.embeddingChunkSize)
			count = p.embeddingChunkSize
		}

		total += count
		counts = append(counts, count)
		if total > opts.Budget {
			boundary = i
			break
		}
	}

	logging.BestEffort(p.logger, "prune_stats", func() error {
		perDocument := make(map[int]int, len(counts))
		for i, c := range counts {
			perDocument[i+1] = c
		}
		p.logger.Debug("pruned sections", "documents", len(counts), "total_tokens", total, "budget", opts.Budget, "tokens_per_document", perDocument)
		return nil
	})

	if boundary >= 0 {
		working, err = p.cutAtBoundary(working, boundary, total, opts)
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(working, func(i, j int) bool {
		ri, rj := isRelevant(relevantByID, working[i]), isRelevant(relevantByID, working[j])
		if ri != rj {
			return ri
		}
		return working[i].Center.ScoreOr(0) > working[j].Center.ScoreOr(0)
	})
	return working, nil
}

func (p *Pruner) cutAtBoundary(working []section.Section, boundary, total int, opts Options) ([]section.Section, error) {
	if !opts.IsManuallySelectedDocs && !opts.UseSections {
		// Sections are single chunks: drop the one that does not fit, unless
		// it is the only one, which is then trimmed to the budget.
		if boundary != 0 {
			return working[:boundary], nil
		}
		working[0].CombinedContent = tokens.Trim(p.tokenizer, working[0].CombinedContent, opts.Budget-MetadataTokenEstimate)
		return working[:1], nil
	}

	if boundary != len(working)-1 {
		dropped := len(working) - boundary - 1
		working = working[:boundary+1]
		if opts.IsManuallySelectedDocs {
			return nil, fmt.Errorf("%w (%d selected sections would be dropped)", ErrContextOverflow, dropped)
		}
	}

	overflow := total - opts.Budget
	// Measure the raw content only; the rendered count included the header.
	last := &working[boundary]
	target := tokens.Count(p.tokenizer, last.CombinedContent) - overflow
	if target <= 0 {
		p.logger.Error("boundary section has no room left for content, removing it from the prompt",
			"section", last.Center.SemanticIdentifier, "overflow", overflow)
		return working[:boundary], nil
	}
	last.CombinedContent = tokens.Trim(p.tokenizer, last.CombinedContent, target)
	return working, nil
}

// relevantFirst moves relevant sections ahead of irrelevant ones while
// keeping the order within each group.
func relevantFirst(sections []section.Section, flags []bool) []section.Section {
	if flags == nil {
		return sections
	}
	out := make([]section.Section, 0, len(sections))
	for _, want := range []bool{true, false} {
		for i, s := range sections {
			if flags[i] == want {
				out = append(out, s)
			}
		}
	}
	return out
}

func withoutIgnored(sections []section.Section) []section.Section {
	out := make([]section.Section, 0, len(sections))
	for _, s := range sections {
		if !s.Center.Ignored() {
			out = append(out, s)
		}
	}
	return out
}

func isRelevant(byID map[string]bool, s section.Section) bool {
	rel, ok := byID[s.Center.Key()]
	return !ok || rel
}
