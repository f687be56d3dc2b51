package merge

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/kcaldas/ragpack/pkg/logging"
	"github.com/kcaldas/ragpack/pkg/section"
)

// Merger consolidates pruned sections into one section per document.
type Merger struct {
	logger logging.Logger
}

// NewMerger creates a merger. A nil logger uses the global component logger.
func NewMerger(logger logging.Logger) *Merger {
	if logger == nil {
		logger = logging.NewComponentLogger("merge")
	}
	return &Merger{logger: logger}
}

// document accumulates the chunks of one document across sections.
type document struct {
	id       string
	order    int
	length   int
	chunkIDs []int
	chunks   map[int]section.Chunk
}

func (d *document) add(c section.Chunk) {
	existing, ok := d.chunks[c.ChunkID]
	if !ok {
		d.chunkIDs = append(d.chunkIDs, c.ChunkID)
		d.chunks[c.ChunkID] = c.Clone()
		return
	}
	if outranks(c, existing) {
		d.chunks[c.ChunkID] = c.Clone()
	}
}

// outranks reports whether c should replace existing for the same chunk id.
// A present score beats a missing one; otherwise the first seen is kept.
func outranks(c, existing section.Chunk) bool {
	if c.Score == nil {
		return false
	}
	return existing.Score == nil || *c.Score > *existing.Score
}

// Merge returns exactly one section per document, in the order of the
// documents' best scores; documents with equal scores keep the order in
// which they first appeared. Duplicate chunks are collapsed to the best
// scoring copy.
//
// The merged content is capped at the combined length of the document's
// input sections plus the separators added while joining. This keeps the
// merged text within what pruning already admitted without tokenizing it a
// second time; the cap counts characters, not tokens.
func (m *Merger) Merge(sections []section.Section) ([]section.Section, error) {
	docs := make(map[string]*document)
	var ordered []*document

	for i, s := range sections {
		docID := s.DocumentID()
		d, ok := docs[docID]
		if !ok {
			d = &document{id: docID, order: i, chunks: make(map[int]section.Chunk)}
			docs[docID] = d
			ordered = append(ordered, d)
		}
		d.length += utf8.RuneCountInString(s.CombinedContent)

		d.add(s.Center)
		for _, c := range s.Chunks {
			if c.DocumentID != docID {
				return nil, fmt.Errorf("section of %q: %w", docID, section.ErrMixedDocuments)
			}
			d.add(c)
		}
	}

	merged := make([]section.Section, 0, len(ordered))
	order := make(map[string]int, len(ordered))
	for _, d := range ordered {
		chunks := make([]section.Chunk, 0, len(d.chunkIDs))
		for _, id := range d.chunkIDs {
			chunks = append(chunks, d.chunks[id])
		}

		s, added, err := section.FromChunks(chunks)
		if err != nil {
			return nil, fmt.Errorf("merge document %q: %w", d.id, err)
		}
		s.CombinedContent = truncateRunes(s.CombinedContent, d.length+added)

		merged = append(merged, s)
		order[d.id] = d.order
	}

	sort.SliceStable(merged, func(i, j int) bool {
		si, sj := merged[i].Center.ScoreOr(0), merged[j].Center.ScoreOr(0)
		if si != sj {
			return si > sj
		}
		return order[merged[i].DocumentID()] < order[merged[j].DocumentID()]
	})

	logging.BestEffort(m.logger, "merge_stats", func() error {
		chunksPerDocument := make(map[int]int, len(merged))
		for i, s := range merged {
			chunksPerDocument[i+1] = len(s.Chunks)
		}
		m.logger.Debug("merged sections",
			"sections", len(sections),
			"documents", len(ordered),
			"merged_sections", len(merged),
			"chunks_per_document", chunksPerDocument)
		return nil
	})

	return merged, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
