package render

import (
	"strings"

	"github.com/kcaldas/ragpack/pkg/section"
	"github.com/kcaldas/ragpack/pkg/template"
)

const codeFence = "```"

// DefaultDocumentTemplate lays out a section as a text block with a header
// of its title, source, metadata and update time.
const DefaultDocumentTemplate = "DOCUMENT {{.Number}}: {{.Title}}\n" +
	"Source: {{.Source}}\n" +
	"{{range .Metadata}}{{capitalize .Key}}: {{.Value}}\n{{end}}" +
	"{{with .Updated}}Updated: {{.}}\n{{end}}" +
	codeFence + "\n{{trim .Content}}\n" + codeFence + "\n\n\n"

// Field is one metadata entry; metadata is rendered in key order.
type Field struct {
	Key   string
	Value string
}

// Document is the data a document template is executed with.
type Document struct {
	Number   int
	Title    string
	Source   string
	Metadata []Field
	Updated  string
	Content  string
}

// NewDocument collects the template data for the section at index.
func NewDocument(s section.Section, index int) Document {
	c := s.Center
	doc := Document{
		Number:  index + 1,
		Title:   c.SemanticIdentifier,
		Source:  CleanSource(c.SourceType),
		Content: s.CombinedContent,
	}

	for _, k := range c.Metadata.Keys() {
		if k == section.IgnoreForQAKey {
			continue
		}
		doc.Metadata = append(doc.Metadata, Field{Key: k, Value: c.Metadata[k].String()})
	}

	if c.UpdatedAt != nil && !c.UpdatedAt.IsZero() {
		doc.Updated = c.UpdatedAt.Format(UpdatedLayout)
	}
	return doc
}

// PlainText renders sections through a document template.
type PlainText struct {
	engine   template.Engine
	template string
}

// NewPlainText uses DefaultDocumentTemplate.
func NewPlainText() *PlainText {
	return NewPlainTextWithTemplate(template.NewEngine(), DefaultDocumentTemplate)
}

// NewPlainTextWithTemplate renders with a custom template, e.g. one loaded
// from a file. An empty template falls back to DefaultDocumentTemplate.
func NewPlainTextWithTemplate(engine template.Engine, tmpl string) *PlainText {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultDocumentTemplate
	}
	return &PlainText{engine: engine, template: tmpl}
}

func (p *PlainText) Render(s section.Section, index int) (string, error) {
	return p.engine.RenderString(p.template, NewDocument(s, index))
}
