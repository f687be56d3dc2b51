package section

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"
)

// IgnoreForQAKey is the reserved metadata key marking a chunk that must never
// be placed into an answering prompt.
const IgnoreForQAKey = "ignore_for_qa"

const (
	// AdjacentSeparator joins chunks whose ids are consecutive.
	AdjacentSeparator = "\n"
	// GapSeparator joins chunks with missing ids between them.
	GapSeparator = "\n\n...\n\n"
)

// ErrMixedDocuments is returned when chunks of several documents are passed
// where a single document is required.
var ErrMixedDocuments = errors.New("chunks belong to more than one document")

// Chunk is the smallest retrievable unit of a document.
type Chunk struct {
	DocumentID         string     `yaml:"document_id" json:"document_id"`
	ChunkID            int        `yaml:"chunk_id" json:"chunk_id"`
	Content            string     `yaml:"content" json:"content"`
	Score              *float64   `yaml:"score,omitempty" json:"score,omitempty"`
	IsFederated        bool       `yaml:"is_federated,omitempty" json:"is_federated,omitempty"`
	Metadata           Metadata   `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	IgnoreForQA        bool       `yaml:"ignore_for_qa,omitempty" json:"ignore_for_qa,omitempty"`
	SemanticIdentifier string     `yaml:"semantic_identifier,omitempty" json:"semantic_identifier,omitempty"`
	SourceType         string     `yaml:"source_type,omitempty" json:"source_type,omitempty"`
	UpdatedAt          *time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
	UniqueID           string     `yaml:"unique_id,omitempty" json:"unique_id,omitempty"`
}

// Key returns the globally unique identifier of the chunk.
func (c Chunk) Key() string {
	if c.UniqueID != "" {
		return c.UniqueID
	}
	return fmt.Sprintf("%s__%d", c.DocumentID, c.ChunkID)
}

// Ignored reports whether the chunk is marked as not usable for answering,
// either through the typed flag or the reserved metadata key.
func (c Chunk) Ignored() bool {
	if c.IgnoreForQA {
		return true
	}
	return isTruthy(c.Metadata[IgnoreForQAKey].String())
}

// ScoreOr returns the score of the chunk, or def when it has none.
func (c Chunk) ScoreOr(def float64) float64 {
	if c.Score == nil {
		return def
	}
	return *c.Score
}

// Normalize lifts the reserved ignore marker out of the metadata map into the
// typed flag. Metadata is rendered into prompts, so the marker must not leak.
func (c Chunk) Normalize() Chunk {
	raw, ok := c.Metadata[IgnoreForQAKey]
	if !ok {
		return c
	}
	c.IgnoreForQA = c.IgnoreForQA || isTruthy(raw.String())
	c.Metadata = c.Metadata.Clone()
	delete(c.Metadata, IgnoreForQAKey)
	return c
}

// Clone returns a deep copy of the chunk.
func (c Chunk) Clone() Chunk {
	if c.Score != nil {
		score := *c.Score
		c.Score = &score
	}
	if c.UpdatedAt != nil {
		updated := *c.UpdatedAt
		c.UpdatedAt = &updated
	}
	c.Metadata = c.Metadata.Clone()
	return c
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// Section is a center chunk together with the chunks surrounding it and the
// content already rendered from them.
type Section struct {
	Center          Chunk   `yaml:"center_chunk" json:"center_chunk"`
	Chunks          []Chunk `yaml:"chunks" json:"chunks"`
	CombinedContent string  `yaml:"combined_content" json:"combined_content"`
}

// DocumentID returns the document the section belongs to.
func (s Section) DocumentID() string {
	return s.Center.DocumentID
}

// Clone returns a deep copy of the section so the copy can be mutated
// without affecting the caller's value.
func (s Section) Clone() Section {
	out := Section{
		Center:          s.Center.Clone(),
		CombinedContent: s.CombinedContent,
	}
	if s.Chunks != nil {
		out.Chunks = make([]Chunk, len(s.Chunks))
		for i, c := range s.Chunks {
			out.Chunks[i] = c.Clone()
		}
	}
	return out
}

// CloneAll deep-copies every section of the list.
func CloneAll(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = s.Clone()
	}
	return out
}

// FromChunks builds one section out of the chunks of a single document.
// Chunks are ordered by chunk id, the highest scoring chunk becomes the center
// (first one wins on ties) and contents are joined with AdjacentSeparator or
// GapSeparator depending on whether the ids are consecutive. The number of
// separator characters inserted is returned alongside the section.
func FromChunks(chunks []Chunk) (Section, int, error) {
	if len(chunks) == 0 {
		return Section{}, 0, errors.New("no chunks to build a section from")
	}
	docID := chunks[0].DocumentID
	for _, c := range chunks[1:] {
		if c.DocumentID != docID {
			return Section{}, 0, fmt.Errorf("%w: %q and %q", ErrMixedDocuments, docID, c.DocumentID)
		}
	}

	center := chunks[0]
	for _, c := range chunks[1:] {
		if c.ScoreOr(math.Inf(-1)) > center.ScoreOr(math.Inf(-1)) {
			center = c
		}
	}

	sorted := slices.Clone(chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChunkID < sorted[j].ChunkID
	})

	var b strings.Builder
	added := 0
	for i, c := range sorted {
		if i > 0 {
			sep := GapSeparator
			if c.ChunkID == sorted[i-1].ChunkID+1 {
				sep = AdjacentSeparator
			}
			b.WriteString(sep)
			added += len(sep)
		}
		b.WriteString(c.Content)
	}

	return Section{
		Center:          center,
		Chunks:          sorted,
		CombinedContent: b.String(),
	}, added, nil
}
