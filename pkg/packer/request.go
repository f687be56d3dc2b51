package packer

import (
	"fmt"

	"github.com/kcaldas/ragpack/pkg/budget"
	"github.com/kcaldas/ragpack/pkg/render"
	"github.com/kcaldas/ragpack/pkg/section"
)

// PruningConfig holds the per request limits on how much document content
// reaches the prompt. Nil caps are unset.
type PruningConfig struct {
	MaxChunks *int `yaml:"max_chunks,omitempty" json:"max_chunks,omitempty"`
	// NumChunkMultiple scales MaxChunks, for callers that retrieve larger
	// sections than one chunk. Zero means 1.
	NumChunkMultiple       int         `yaml:"num_chunk_multiple,omitempty" json:"num_chunk_multiple,omitempty"`
	MaxWindowPercentage    *float64    `yaml:"max_window_percentage,omitempty" json:"max_window_percentage,omitempty"`
	MaxTokens              *int        `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	ToolNumTokens          int         `yaml:"tool_num_tokens,omitempty" json:"tool_num_tokens,omitempty"`
	IsManuallySelectedDocs bool        `yaml:"is_manually_selected_docs,omitempty" json:"is_manually_selected_docs,omitempty"`
	UseSections            bool        `yaml:"use_sections,omitempty" json:"use_sections,omitempty"`
	RenderMode             render.Mode `yaml:"render_mode,omitempty" json:"render_mode,omitempty"`
}

// Validate rejects caps that cannot describe a budget.
func (c PruningConfig) Validate() error {
	if c.MaxChunks != nil && *c.MaxChunks < 0 {
		return fmt.Errorf("max_chunks must not be negative, got %d", *c.MaxChunks)
	}
	if c.NumChunkMultiple < 0 {
		return fmt.Errorf("num_chunk_multiple must not be negative, got %d", c.NumChunkMultiple)
	}
	if p := c.MaxWindowPercentage; p != nil && (*p <= 0 || *p > 1) {
		return fmt.Errorf("max_window_percentage must be in (0, 1], got %g", *p)
	}
	if c.MaxTokens != nil && *c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", *c.MaxTokens)
	}
	if c.ToolNumTokens < 0 {
		return fmt.Errorf("tool_num_tokens must not be negative, got %d", c.ToolNumTokens)
	}
	return nil
}

func (c PruningConfig) chunkMultiple() int {
	if c.NumChunkMultiple == 0 {
		return 1
	}
	return c.NumChunkMultiple
}

// Request is one packing call: retrieved sections ordered by descending
// score and the prompt they are going into.
type Request struct {
	Sections  []section.Section   `yaml:"sections" json:"sections"`
	Relevance []bool              `yaml:"relevance,omitempty" json:"relevance,omitempty"`
	Prompt    budget.PromptConfig `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Model     budget.ModelConfig  `yaml:"model,omitempty" json:"model,omitempty"`
	Question  string              `yaml:"question,omitempty" json:"question,omitempty"`
	Pruning   PruningConfig       `yaml:"pruning,omitempty" json:"pruning,omitempty"`
}
