package merge

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/kcaldas/ragpack/pkg/section"
)

// ErrInvalidRange is returned for a chunk range whose start is after its end.
var ErrInvalidRange = errors.New("invalid chunk range")

// MergeChunkIntervals merges the overlapping or touching chunk ranges of one
// document, the classic merge-intervals problem. Ranges whose start is at
// most one past the previous end are combined, so [0,2] and [3,5] become
// [0,5] while [0,2] and [4,5] stay apart.
//
// This only plans which chunk ids to fetch from the index. It does not merge
// content; see Merger for that. The input ranges are not modified.
func MergeChunkIntervals(ranges []section.ChunkRange) ([]section.ChunkRange, error) {
	docID := ""
	for _, r := range ranges {
		if r.Start > r.End {
			return nil, fmt.Errorf("%w: start %d > end %d", ErrInvalidRange, r.Start, r.End)
		}
		for _, c := range r.Chunks {
			if docID == "" {
				docID = c.DocumentID
			} else if c.DocumentID != docID {
				return nil, fmt.Errorf("%w: %q and %q", section.ErrMixedDocuments, docID, c.DocumentID)
			}
		}
	}

	sorted := slices.Clone(ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var merged []section.ChunkRange
	for _, r := range sorted {
		if len(merged) == 0 || merged[len(merged)-1].End < r.Start-1 {
			merged = append(merged, section.ChunkRange{
				Chunks: slices.Clone(r.Chunks),
				Start:  r.Start,
				End:    r.End,
			})
			continue
		}
		last := &merged[len(merged)-1]
		last.End = max(last.End, r.End)
		last.Chunks = append(last.Chunks, r.Chunks...)
	}
	return merged, nil
}
