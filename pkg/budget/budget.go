package budget

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfiguration is returned when no usable token limit can be derived.
var ErrConfiguration = errors.New("invalid budget configuration")

// Caps are the caller supplied limits on document tokens. Nil means unset.
type Caps struct {
	MaxChunks           *int
	MaxWindowPercentage *float64
	MaxTokens           *int
}

// Limit combines the document token allowance of the model with the caller
// caps and returns the smallest of them:
//
//	window = MaxWindowPercentage × base
//	chunks = MaxChunks × chunkSize
//	tokens = MaxTokens
//	base
//
// Only strictly positive candidates take part, so a zero cap is treated as
// unset. Without any positive candidate ErrConfiguration is returned.
func Limit(base int, caps Caps, chunkSize int) (int, error) {
	var candidates []float64
	if caps.MaxWindowPercentage != nil {
		candidates = append(candidates, *caps.MaxWindowPercentage*float64(base))
	}
	if caps.MaxChunks != nil {
		candidates = append(candidates, float64(*caps.MaxChunks)*float64(chunkSize))
	}
	if caps.MaxTokens != nil {
		candidates = append(candidates, float64(*caps.MaxTokens))
	}
	candidates = append(candidates, float64(base))

	limit := math.Inf(1)
	for _, c := range candidates {
		if c > 0 && c < limit {
			limit = c
		}
	}
	if math.IsInf(limit, 1) {
		return 0, fmt.Errorf("%w: no positive token limit among %v", ErrConfiguration, candidates)
	}
	return int(math.Floor(limit)), nil
}
