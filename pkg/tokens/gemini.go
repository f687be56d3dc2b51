package tokens

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// spaceMarker is the SentencePiece meta symbol standing for a space.
const spaceMarker = "▁"

// tokenComputer is the part of the genai local tokenizer Gemini relies on.
type tokenComputer interface {
	ComputeTokens(contents []*genai.Content) (*genai.ComputeTokensResult, error)
}

// Gemini is a Tokenizer backed by the genai SDK's local SentencePiece
// tokenizer. The model file is downloaded once and cached on disk; counting
// never calls the API.
//
// SentencePiece ids cannot be decoded without the model, so Gemini keeps the
// piece of every id it has encoded. Decode only knows ids seen by Encode,
// which is all Trim needs.
type Gemini struct {
	computer tokenComputer

	mu     sync.RWMutex
	pieces map[int][]byte
}

var stdoutMu sync.Mutex

// NewGemini loads the local tokenizer for a Gemini model such as
// "gemini-2.5-flash". Models the SDK has no tokenizer for are an error.
func NewGemini(model string) (*Gemini, error) {
	// The SDK prints an experimental-feature notice on stdout the first
	// time, which would end up in piped command output.
	stdoutMu.Lock()
	stdout := os.Stdout
	os.Stdout = os.Stderr
	tok, err := tokenizer.NewLocalTokenizer(model)
	os.Stdout = stdout
	stdoutMu.Unlock()
	if err != nil {
		return nil, err
	}
	return newGemini(tok), nil
}

func newGemini(computer tokenComputer) *Gemini {
	return &Gemini{computer: computer, pieces: make(map[int][]byte)}
}

// NewGeminiFactory returns a Factory building Gemini tokenizers. Models
// without a local tokenizer, or a model file that cannot be fetched, are
// served by fallback instead.
func NewGeminiFactory(fallback Factory) Factory {
	return func(model string) (Tokenizer, error) {
		g, err := NewGemini(model)
		if err == nil {
			return g, nil
		}
		if fallback == nil {
			return nil, err
		}
		return fallback(model)
	}
}

func (g *Gemini) Encode(text string) []int {
	if text == "" {
		return nil
	}
	res, err := g.computer.ComputeTokens([]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)})
	// A single text part cannot be rejected; an error leaves nothing to count.
	if err != nil || res == nil {
		return nil
	}

	var ids []int
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, info := range res.TokensInfo {
		for i, id := range info.TokenIDs {
			ids = append(ids, int(id))
			if i < len(info.Tokens) {
				if _, ok := g.pieces[int(id)]; !ok {
					g.pieces[int(id)] = decodePiece(info.Tokens[i])
				}
			}
		}
	}
	return ids
}

func (g *Gemini) Decode(ids []int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var b strings.Builder
	for _, id := range ids {
		b.Write(g.pieces[id])
	}
	return b.String()
}

// decodePiece turns a SentencePiece piece into the text it stands for.
// Byte-fallback pieces look like "<0xE6>".
func decodePiece(piece []byte) []byte {
	s := string(piece)
	if len(s) == 6 && strings.HasPrefix(s, "<0x") && strings.HasSuffix(s, ">") {
		if v, err := strconv.ParseUint(s[3:5], 16, 8); err == nil {
			return []byte{byte(v)}
		}
	}
	return []byte(strings.ReplaceAll(s, spaceMarker, " "))
}
