package tokens_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/kcaldas/ragpack/pkg/tokens"
	"github.com/kcaldas/ragpack/pkg/tokens/tokenstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, tokens.EstimateTokens(""))
	// "Hi" = 2 chars → ceil(2/4) = 1
	assert.Equal(t, 1, tokens.EstimateTokens("Hi"))
	assert.Equal(t, 2, tokens.EstimateTokens("12345678"))
	assert.Equal(t, 3, tokens.EstimateTokens("123456789"))
	assert.Equal(t, 250, tokens.EstimateTokens(strings.Repeat("a", 1000)))
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, tokens.Count(tokenstest.Runes{}, ""))
	assert.Equal(t, 5, tokens.Count(tokenstest.Runes{}, "héllo"))
}

func TestTrim(t *testing.T) {
	tok := tokenstest.Runes{}

	assert.Equal(t, "hello", tokens.Trim(tok, "hello", 10))
	assert.Equal(t, "hello", tokens.Trim(tok, "hello", 5))
	assert.Equal(t, "hel", tokens.Trim(tok, "hello", 3))
	assert.Equal(t, "", tokens.Trim(tok, "hello", 0))
	assert.Equal(t, "", tokens.Trim(tok, "hello", -4))
}

func TestTrim_DropsSplitCharacter(t *testing.T) {
	tok := tokenstest.Bytes{}

	// 日 is three bytes, so four byte tokens end inside 本.
	out := tokens.Trim(tok, "日本語", 4)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "日", out)

	assert.Equal(t, "日本", tokens.Trim(tok, "日本語", 6))
	assert.Equal(t, "", tokens.Trim(tok, "日本語", 2))
	assert.Equal(t, "ab", tokens.Trim(tok, "abé", 3))
}

func TestTrim_ReplacesInvalidBytesInsideTheCut(t *testing.T) {
	out := tokens.Trim(tokenstest.Bytes{}, "a\xffbc\xe6", 4)
	assert.Equal(t, "a\uFFFDbc", out)
}

func TestRegistry_CachesPerProviderAndModel(t *testing.T) {
	calls := 0
	reg := tokens.NewRegistryWithFallback(func(model string) (tokens.Tokenizer, error) {
		calls++
		return tokenstest.Runes{}, nil
	})

	_, err := reg.Get("openai", "gpt-4o")
	require.NoError(t, err)
	_, err = reg.Get("OpenAI ", "gpt-4o")
	require.NoError(t, err)
	_, err = reg.Get("openai", "gpt-4.1")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestRegistry_ProviderFactoryTakesPriority(t *testing.T) {
	reg := tokens.NewRegistryWithFallback(func(string) (tokens.Tokenizer, error) {
		return nil, errors.New("fallback must not be used")
	})
	var gotModel string
	reg.Register("anthropic", func(model string) (tokens.Tokenizer, error) {
		gotModel = model
		return tokenstest.Runes{}, nil
	})

	tok, err := reg.Get("anthropic", "claude-sonnet-4")
	require.NoError(t, err)
	assert.NotNil(t, tok)
	assert.Equal(t, "claude-sonnet-4", gotModel)

	_, err = reg.Get("ollama", "llama3")
	assert.Error(t, err)
}

func TestRegistry_RegisterInvalidatesCache(t *testing.T) {
	reg := tokens.NewRegistryWithFallback(func(string) (tokens.Tokenizer, error) {
		return tokenstest.Runes{}, nil
	})
	_, err := reg.Get("custom", "m")
	require.NoError(t, err)

	reg.Register("custom", func(string) (tokens.Tokenizer, error) {
		return nil, errors.New("replaced")
	})
	_, err = reg.Get("custom", "m")
	assert.EqualError(t, err, "tokenizer for custom/m: replaced")
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	reg := tokens.NewRegistryWithFallback(func(string) (tokens.Tokenizer, error) {
		return tokenstest.Runes{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Get("openai", "gpt-4o")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestTiktoken_RoundTrip(t *testing.T) {
	tok, err := tokens.NewTiktoken("gpt-4o")
	if err != nil {
		// The BPE ranks are fetched on first use; offline runs cannot load them.
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	text := "Packing retrieved sections into a prompt."
	ids := tok.Encode(text)
	require.NotEmpty(t, ids)
	assert.Equal(t, text, tok.Decode(ids))
	assert.Less(t, len(tokens.Trim(tok, text, 2)), len(text))
}
