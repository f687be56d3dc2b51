// Package tokenstest provides deterministic tokenizers for tests.
package tokenstest

// Runes treats every rune as one token, so token counts equal rune counts
// and any prefix of the ids decodes back to a prefix of the text.
type Runes struct{}

func (Runes) Encode(text string) []int {
	ids := make([]int, 0, len(text))
	for _, r := range text {
		ids = append(ids, int(r))
	}
	return ids
}

func (Runes) Decode(ids []int) string {
	out := make([]rune, len(ids))
	for i, id := range ids {
		out[i] = rune(id)
	}
	return string(out)
}

// Bytes treats every byte as one token, like a byte-level BPE without
// merges. Prefixes of the ids can end inside a multi-byte character.
type Bytes struct{}

func (Bytes) Encode(text string) []int {
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i])
	}
	return ids
}

func (Bytes) Decode(ids []int) string {
	out := make([]byte, len(ids))
	for i, id := range ids {
		out[i] = byte(id)
	}
	return string(out)
}
