package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// FallbackEncoding is used for models tiktoken does not know about.
const FallbackEncoding = "cl100k_base"

// Tiktoken is a Tokenizer backed by a BPE encoding from tiktoken-go.
type Tiktoken struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewTiktoken returns the encoding registered for model, or the fallback
// encoding when the model is unknown.
func NewTiktoken(model string) (*Tiktoken, error) {
	if model != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return &Tiktoken{encoding: "model:" + model, enc: enc}, nil
		}
	}
	return NewTiktokenEncoding(FallbackEncoding)
}

// NewTiktokenEncoding returns a tokenizer for a named encoding such as
// "cl100k_base" or "o200k_base".
func NewTiktokenEncoding(name string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("get encoding %s: %w", name, err)
	}
	return &Tiktoken{encoding: name, enc: enc}, nil
}

// Name identifies the encoding in use.
func (t *Tiktoken) Name() string {
	return t.encoding
}

// Encode allows special tokens: retrieved documents may contain markers
// such as <|endoftext|>, on which tiktoken panics when they are disallowed.
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, []string{"all"}, nil)
}

func (t *Tiktoken) Decode(ids []int) string {
	return t.enc.Decode(ids)
}
