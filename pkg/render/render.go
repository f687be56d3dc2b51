// Package render turns sections into the exact text they occupy in a prompt,
// so their token cost can be measured before the prompt is assembled.
package render

import (
	"fmt"
	"strings"

	"github.com/kcaldas/ragpack/pkg/section"
)

// Mode selects how sections are presented to the model.
type Mode int

const (
	// ModePlainText renders each section as a numbered text block.
	ModePlainText Mode = iota
	// ModeToolJSON renders each section as a JSON object inside a tool message.
	ModeToolJSON
)

// UpdatedLayout is the timestamp layout used by both renderers.
const UpdatedLayout = "January 02, 2006 15:04"

func (m Mode) String() string {
	switch m {
	case ModePlainText:
		return "plain_text"
	case ModeToolJSON:
		return "tool_json"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts the names returned by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain_text", "plain", "text":
		return ModePlainText, nil
	case "tool_json", "tool", "json":
		return ModeToolJSON, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Renderer renders the section at a zero-based position of the prompt.
type Renderer interface {
	Render(s section.Section, index int) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(s section.Section, index int) (string, error)

func (f RendererFunc) Render(s section.Section, index int) (string, error) {
	return f(s, index)
}

// Set holds one renderer per mode.
type Set struct {
	PlainText Renderer
	ToolJSON  Renderer
}

// DefaultSet returns the built-in renderers.
func DefaultSet() Set {
	return Set{
		PlainText: NewPlainText(),
		ToolJSON:  ToolJSON{},
	}
}

// For returns the renderer of mode m.
func (s Set) For(m Mode) (Renderer, error) {
	var r Renderer
	switch m {
	case ModePlainText:
		r = s.PlainText
	case ModeToolJSON:
		r = s.ToolJSON
	default:
		return nil, fmt.Errorf("unknown render mode %s", m)
	}
	if r == nil {
		return nil, fmt.Errorf("no renderer configured for %s", m)
	}
	return r, nil
}

// CleanSource turns a source type like "google_drive" into "Google Drive".
func CleanSource(source string) string {
	if source == "" || source == "not_applicable" {
		return "Other"
	}
	words := strings.Split(source, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
