package packer

import (
	"errors"
	"strings"
	"testing"

	"github.com/kcaldas/ragpack/pkg/budget"
	"github.com/kcaldas/ragpack/pkg/config"
	"github.com/kcaldas/ragpack/pkg/logging"
	"github.com/kcaldas/ragpack/pkg/prune"
	"github.com/kcaldas/ragpack/pkg/render"
	"github.com/kcaldas/ragpack/pkg/section"
	"github.com/kcaldas/ragpack/pkg/tokens"
	"github.com/kcaldas/ragpack/pkg/tokens/tokenstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sourceMock struct {
	mock.Mock
}

func (m *sourceMock) Get(provider, model string) (tokens.Tokenizer, error) {
	args := m.Called(provider, model)
	tok, _ := args.Get(0).(tokens.Tokenizer)
	return tok, args.Error(1)
}

func runesSource() *sourceMock {
	m := &sourceMock{}
	m.On("Get", mock.Anything, mock.Anything).Return(tokenstest.Runes{}, nil)
	return m
}

// fixedBudget ignores the prompt and leaves n tokens for documents.
func fixedBudget(n int) budget.MaxDocumentTokensFunc {
	return func(budget.PromptConfig, budget.ModelConfig, int, string) int { return n }
}

var contentOnly = render.RendererFunc(func(s section.Section, _ int) (string, error) {
	return s.CombinedContent, nil
})

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.EmbeddingChunkSize = 10
	return s
}

func newTestPacker(source budget.TokenizerSource, maxDocumentTokens budget.MaxDocumentTokensFunc) *Packer {
	return New(source, maxDocumentTokens, testSettings(), logging.NewDisabledLogger()).
		WithRenderers(render.Set{PlainText: contentOnly, ToolJSON: render.ToolJSON{}})
}

func score(v float64) *float64 { return &v }
func intp(v int) *int           { return &v }

func sec(doc string, id int, sc *float64, content string) section.Section {
	c := section.Chunk{DocumentID: doc, ChunkID: id, Content: content, Score: sc}
	return section.Section{Center: c, Chunks: []section.Chunk{c}, CombinedContent: content}
}

func federated(doc, content string) section.Section {
	s := sec(doc, 0, nil, content)
	s.Center.IsFederated = true
	s.Chunks[0].IsFederated = true
	return s
}

func keys(sections []section.Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Center.Key()
	}
	return out
}

func TestPruneAndMerge_EndToEnd(t *testing.T) {
	p := newTestPacker(runesSource(), fixedBudget(10000))

	out, err := p.PruneAndMerge(Request{Sections: []section.Section{
		sec("A", 0, score(0.9), "alpha"),
		sec("A", 1, score(0.95), "beta"),
		sec("B", 0, score(0.5), "gamma"),
	}})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].DocumentID())
	assert.Equal(t, "alpha\nbeta", out[0].CombinedContent)
	assert.Equal(t, 1, out[0].Center.ChunkID)
	assert.Equal(t, 0.95, *out[0].Center.Score)
	assert.Equal(t, "B", out[1].DocumentID())
	assert.Equal(t, "gamma", out[1].CombinedContent)
}

func TestPruneAndMerge_WithDefaultRenderers(t *testing.T) {
	p := New(runesSource(), fixedBudget(10000), config.DefaultSettings(), logging.NewDisabledLogger())

	out, err := p.PruneAndMerge(Request{
		Sections: []section.Section{
			sec("A", 0, score(0.9), "alpha"),
			sec("B", 0, score(0.5), "gamma"),
		},
		Pruning: PruningConfig{RenderMode: render.ModeToolJSON},
	})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestPruneSections_FederatedSurviveAndRaiseChunkCap(t *testing.T) {
	p := newTestPacker(runesSource(), fixedBudget(10000))

	// one chunk of 10 tokens plus one per federated section: budget 30
	out, err := p.PruneSections(Request{
		Sections: []section.Section{
			sec("N1", 0, score(0.9), strings.Repeat("a", 10)),
			federated("F1", strings.Repeat("f", 10)),
			sec("N2", 0, score(0.8), strings.Repeat("b", 10)),
			federated("F2", strings.Repeat("g", 10)),
		},
		Pruning: PruningConfig{MaxChunks: intp(1)},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"F1__0", "F2__0", "N1__0"}, keys(out))
	assert.Equal(t, "N1__0", out[0].Center.Key())
}

func TestPruneSections_FederatedBeyondCapCompete(t *testing.T) {
	settings := testSettings()
	settings.MaxFederatedSections = 1
	p := New(runesSource(), fixedBudget(20), settings, logging.NewDisabledLogger()).
		WithRenderers(render.Set{PlainText: contentOnly, ToolJSON: render.ToolJSON{}})

	out, err := p.PruneSections(Request{Sections: []section.Section{
		federated("F1", strings.Repeat("f", 10)),
		sec("N1", 0, score(0.9), strings.Repeat("a", 10)),
		federated("F2", strings.Repeat("g", 10)),
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"N1__0", "F1__0"}, keys(out))
}

func TestPruneSections_ChunkMultiple(t *testing.T) {
	var sections []section.Section
	for i := range 6 {
		sections = append(sections, sec("A", i, score(1-float64(i)/10), strings.Repeat("x", 10)))
	}
	p := newTestPacker(runesSource(), fixedBudget(10000))

	out, err := p.PruneSections(Request{
		Sections: sections,
		Pruning:  PruningConfig{MaxChunks: intp(2), NumChunkMultiple: 2},
	})
	require.NoError(t, err)
	assert.Len(t, out, 4)
}

func TestPruneSections_PassesPromptToBudget(t *testing.T) {
	var got struct {
		prompt   budget.PromptConfig
		model    budget.ModelConfig
		tools    int
		question string
	}
	maxTokens := func(prompt budget.PromptConfig, model budget.ModelConfig, tools int, question string) int {
		got.prompt, got.model, got.tools, got.question = prompt, model, tools, question
		return 1000
	}
	source := runesSource()
	p := newTestPacker(source, maxTokens)

	_, err := p.PruneSections(Request{
		Sections: []section.Section{sec("A", 0, score(1), "a")},
		Prompt:   budget.PromptConfig{SystemPrompt: "system"},
		Question: "why?",
		Pruning:  PruningConfig{ToolNumTokens: 12},
	})
	require.NoError(t, err)

	assert.Equal(t, "system", got.prompt.SystemPrompt)
	assert.Equal(t, "why?", got.question)
	assert.Equal(t, 12, got.tools)
	assert.Equal(t, budget.ModelConfig{Provider: "openai", Name: "gpt-4o"}, got.model)
	source.AssertCalled(t, "Get", "openai", "gpt-4o")
}

func TestPruneSections_ExplicitModelKeepsProvider(t *testing.T) {
	source := runesSource()
	p := newTestPacker(source, fixedBudget(1000))

	_, err := p.PruneSections(Request{
		Sections: []section.Section{sec("A", 0, score(1), "a")},
		Model:    budget.ModelConfig{Provider: "anthropic", Name: "claude-3-5-sonnet"},
	})
	require.NoError(t, err)
	source.AssertCalled(t, "Get", "anthropic", "claude-3-5-sonnet")
}

func TestPruneSections_NoPositiveBudget(t *testing.T) {
	p := newTestPacker(runesSource(), fixedBudget(0))

	_, err := p.PruneSections(Request{Sections: []section.Section{sec("A", 0, nil, "a")}})
	assert.ErrorIs(t, err, budget.ErrConfiguration)
}

func TestPruneSections_RejectsInvalidConfig(t *testing.T) {
	pct := 1.5
	p := newTestPacker(runesSource(), fixedBudget(100))

	_, err := p.PruneSections(Request{Pruning: PruningConfig{MaxWindowPercentage: &pct}})
	assert.ErrorIs(t, err, budget.ErrConfiguration)
}

func TestPruneSections_TokenizerError(t *testing.T) {
	source := &sourceMock{}
	source.On("Get", "openai", "gpt-4o").Return(nil, errors.New("no encoding"))
	p := newTestPacker(source, fixedBudget(100))

	_, err := p.PruneSections(Request{Sections: []section.Section{sec("A", 0, nil, "a")}})
	assert.ErrorContains(t, err, "no encoding")
	source.AssertExpectations(t)
}

func TestPruneSections_RelevanceMismatch(t *testing.T) {
	p := newTestPacker(runesSource(), fixedBudget(100))

	_, err := p.PruneSections(Request{
		Sections:  []section.Section{sec("A", 0, nil, "a"), sec("B", 0, nil, "b")},
		Relevance: []bool{true},
	})
	assert.ErrorIs(t, err, prune.ErrRelevanceMismatch)
}

func TestPruneSections_RelevanceAlignedAfterSplit(t *testing.T) {
	p := newTestPacker(runesSource(), fixedBudget(1000))

	out, err := p.PruneSections(Request{
		Sections: []section.Section{
			sec("N1", 0, score(0.9), "n1"),
			federated("F1", "f1"),
			sec("N2", 0, score(0.2), "n2"),
		},
		Relevance: []bool{false, false, true},
	})
	require.NoError(t, err)

	// relevant first, then by score; the federated section has none
	assert.Equal(t, []string{"N2__0", "F1__0", "N1__0"}, keys(out))
}

func TestPruneSections_DropsSectionsIgnoredThroughMetadata(t *testing.T) {
	ignored := sec("A", 0, score(0.99), "secret")
	ignored.Center.Metadata = section.Metadata{section.IgnoreForQAKey: section.Text("true")}
	p := newTestPacker(runesSource(), fixedBudget(1000))

	out, err := p.PruneSections(Request{Sections: []section.Section{ignored, sec("B", 0, score(0.1), "b")}})
	require.NoError(t, err)

	assert.Equal(t, []string{"B__0"}, keys(out))
	assert.Contains(t, ignored.Center.Metadata, section.IgnoreForQAKey)
}

func TestPruneAndMerge_ManualOverflow(t *testing.T) {
	p := newTestPacker(runesSource(), fixedBudget(15))

	_, err := p.PruneAndMerge(Request{
		Sections: []section.Section{
			sec("A", 0, score(0.9), strings.Repeat("a", 10)),
			sec("B", 0, score(0.8), strings.Repeat("b", 10)),
			sec("C", 0, score(0.7), strings.Repeat("c", 10)),
		},
		Pruning: PruningConfig{IsManuallySelectedDocs: true},
	})
	assert.ErrorIs(t, err, prune.ErrContextOverflow)
}

func TestPruneAndMerge_SingleOversizedChunk(t *testing.T) {
	settings := testSettings()
	settings.EmbeddingChunkSize = 10000
	p := New(runesSource(), fixedBudget(100), settings, logging.NewDisabledLogger()).
		WithRenderers(render.Set{PlainText: contentOnly, ToolJSON: render.ToolJSON{}})

	out, err := p.PruneAndMerge(Request{Sections: []section.Section{sec("A", 0, score(0.9), strings.Repeat("a", 500))}})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, strings.Repeat("a", 100-prune.MetadataTokenEstimate), out[0].CombinedContent)
}

func TestPruningConfig_Validate(t *testing.T) {
	pct := func(v float64) *float64 { return &v }
	tests := []struct {
		name    string
		config  PruningConfig
		wantErr string
	}{
		{name: "zero value", config: PruningConfig{}},
		{name: "zero multiple means one", config: PruningConfig{MaxChunks: intp(3), NumChunkMultiple: 0}},
		{name: "full window", config: PruningConfig{MaxWindowPercentage: pct(1)}},
		{name: "zero percentage", config: PruningConfig{MaxWindowPercentage: pct(0)}, wantErr: "max_window_percentage"},
		{name: "above one", config: PruningConfig{MaxWindowPercentage: pct(1.1)}, wantErr: "max_window_percentage"},
		{name: "negative chunks", config: PruningConfig{MaxChunks: intp(-1)}, wantErr: "max_chunks must not be negative"},
		{name: "negative multiple", config: PruningConfig{NumChunkMultiple: -2}, wantErr: "num_chunk_multiple must not be negative"},
		{name: "negative tokens", config: PruningConfig{MaxTokens: intp(-5)}, wantErr: "max_tokens must not be negative"},
		{name: "negative tool tokens", config: PruningConfig{ToolNumTokens: -1}, wantErr: "tool_num_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
