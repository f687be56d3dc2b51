package tokens

import (
	"strings"
	"unicode/utf8"
)

// Tokenizer turns text into token ids and back. Only the number of ids and
// prefix decoding are relied upon.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
}

// Count returns the number of tokens text encodes to.
func Count(t Tokenizer, text string) int {
	if text == "" {
		return 0
	}
	return len(t.Encode(text))
}

// Trim cuts content down to at most desired tokens. Content already within
// the limit is returned unchanged. The result is always valid UTF-8: a
// character split by the cut is dropped.
func Trim(t Tokenizer, content string, desired int) string {
	if desired <= 0 {
		return ""
	}
	ids := t.Encode(content)
	if len(ids) <= desired {
		return content
	}
	return validUTF8(t.Decode(ids[:desired]))
}

// validUTF8 drops a trailing partial character and replaces any other
// invalid byte sequence with U+FFFD. Byte-level BPE tokens need not end on
// a character boundary.
func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// EstimateTokens provides a conservative token estimate for a string using
// the chars/4 heuristic. Used where no tokenizer is at hand.
func EstimateTokens(content string) int {
	if len(content) == 0 {
		return 0
	}
	return (len(content) + 3) / 4
}
