package budget

import "github.com/kcaldas/ragpack/pkg/tokens"

const (
	// DefaultReservedOutputTokens is kept free for the model's answer.
	DefaultReservedOutputTokens = 1024
	// MiscBuffer absorbs message framing and other small overheads.
	MiscBuffer = 40
)

// PromptConfig is the prompt the documents are placed into.
type PromptConfig struct {
	SystemPrompt string `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	TaskPrompt   string `yaml:"task_prompt,omitempty" json:"task_prompt,omitempty"`
}

// ModelConfig identifies the target model. MaxInputTokens overrides the
// built-in context window table when positive.
type ModelConfig struct {
	Provider       string `yaml:"provider" json:"provider"`
	Name           string `yaml:"name" json:"name"`
	MaxInputTokens int    `yaml:"max_input_tokens,omitempty" json:"max_input_tokens,omitempty"`
}

// MaxDocumentTokensFunc reports how many tokens are left for documents once
// the prompt, tools and question are accounted for.
type MaxDocumentTokensFunc func(prompt PromptConfig, model ModelConfig, toolTokenCount int, question string) int

// TokenizerSource resolves the tokenizer of a model.
type TokenizerSource interface {
	Get(provider, model string) (tokens.Tokenizer, error)
}

// DocumentTokenCalculator is the default MaxDocumentTokensFunc. It counts
// the prompt and question with the model's tokenizer, falling back to the
// chars/4 estimate when no tokenizer can be resolved.
type DocumentTokenCalculator struct {
	Tokenizers           TokenizerSource
	ReservedOutputTokens int
}

// NewDocumentTokenCalculator creates a calculator reserving reserved tokens
// for the answer. A non-positive reserve uses DefaultReservedOutputTokens.
func NewDocumentTokenCalculator(source TokenizerSource, reserved int) *DocumentTokenCalculator {
	if reserved <= 0 {
		reserved = DefaultReservedOutputTokens
	}
	return &DocumentTokenCalculator{Tokenizers: source, ReservedOutputTokens: reserved}
}

// MaxDocumentTokens implements MaxDocumentTokensFunc.
func (c *DocumentTokenCalculator) MaxDocumentTokens(prompt PromptConfig, model ModelConfig, toolTokenCount int, question string) int {
	window := model.MaxInputTokens
	if window <= 0 {
		window = ContextWindow(model.Name)
	}

	count := tokens.EstimateTokens
	if c.Tokenizers != nil {
		if tok, err := c.Tokenizers.Get(model.Provider, model.Name); err == nil {
			count = func(s string) int { return tokens.Count(tok, s) }
		}
	}

	available := window - c.ReservedOutputTokens
	available -= count(prompt.SystemPrompt)
	available -= count(prompt.TaskPrompt)
	available -= count(question)
	available -= toolTokenCount
	available -= MiscBuffer
	return max(available, 0)
}

// Func returns the calculator as a MaxDocumentTokensFunc.
func (c *DocumentTokenCalculator) Func() MaxDocumentTokensFunc {
	return c.MaxDocumentTokens
}
