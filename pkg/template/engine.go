package template

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

// Engine provides template rendering functionality
type Engine interface {
	RenderString(templateContent string, data any) (string, error)
	RenderFile(filePath string, data any) (string, error)
}

// DefaultEngine implements Engine and keeps parsed templates around, since
// document templates are rendered once per section on every call.
type DefaultEngine struct {
	mu     sync.RWMutex
	parsed map[string]*template.Template
}

// NewEngine creates a new default template engine
func NewEngine() *DefaultEngine {
	return &DefaultEngine{parsed: make(map[string]*template.Template)}
}

// Funcs available to every template.
var Funcs = template.FuncMap{
	"indent":     indent,
	"capitalize": capitalize,
	"trim":       strings.TrimSpace,
}

// RenderString renders a template string with the provided data
func (e *DefaultEngine) RenderString(templateContent string, data any) (string, error) {
	tmpl, err := e.lookup(templateContent)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderFile renders a template file with the provided data
func (e *DefaultEngine) RenderFile(filePath string, data any) (string, error) {
	tmpl, err := template.New(filepath.Base(filePath)).Funcs(Funcs).ParseFiles(filePath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *DefaultEngine) lookup(content string) (*template.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.parsed[content]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := template.New("template").Funcs(Funcs).Parse(content)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.parsed[content] = tmpl
	e.mu.Unlock()
	return tmpl, nil
}

// indent adds the specified number of spaces to the beginning of each line
func indent(spaces int, text string) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(text string) string {
	if text == "" {
		return text
	}
	runes := []rune(strings.ToLower(text))
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
