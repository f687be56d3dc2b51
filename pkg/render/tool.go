package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kcaldas/ragpack/pkg/section"
)

// ToolDocument is the object a section becomes inside a tool message.
type ToolDocument struct {
	DocumentNumber int              `json:"document_number"`
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	Source         string           `json:"source"`
	Metadata       section.Metadata `json:"metadata"`
	UpdatedAt      string           `json:"updated_at,omitempty"`
}

// NewToolDocument builds the tool payload for the section at index.
func NewToolDocument(s section.Section, index int) ToolDocument {
	c := s.Center
	meta := c.Metadata.Clone()
	if meta == nil {
		meta = section.Metadata{}
	}
	delete(meta, section.IgnoreForQAKey)

	doc := ToolDocument{
		DocumentNumber: index + 1,
		Title:          c.SemanticIdentifier,
		Content:        s.CombinedContent,
		Source:         c.SourceType,
		Metadata:       meta,
	}
	if c.UpdatedAt != nil && !c.UpdatedAt.IsZero() {
		doc.UpdatedAt = c.UpdatedAt.Format(UpdatedLayout)
	}
	return doc
}

// ToolJSON renders sections as serialized tool payloads.
type ToolJSON struct{}

func (ToolJSON) Render(s section.Section, index int) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(NewToolDocument(s, index)); err != nil {
		return "", fmt.Errorf("encode tool document: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
