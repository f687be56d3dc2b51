package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RenderString(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RenderString("Hello {{.name}}", map[string]string{
		"name": "World",
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello World", result)
}

func TestEngine_RenderString_Struct(t *testing.T) {
	engine := NewEngine()

	data := struct{ Title string }{Title: "Runbook"}
	result, err := engine.RenderString("DOCUMENT: {{.Title}}", data)

	require.NoError(t, err)
	assert.Equal(t, "DOCUMENT: Runbook", result)
}

func TestEngine_RenderString_WithIndentFunction(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RenderString("Code:\n{{indent 2 .code}}", map[string]string{
		"code": "func main() {\n  println(\"hello\")\n}",
	})

	require.NoError(t, err)
	expected := "Code:\n  func main() {\n    println(\"hello\")\n  }"
	assert.Equal(t, expected, result)
}

func TestEngine_RenderString_Capitalize(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RenderString("{{capitalize .k}}", map[string]string{"k": "oWNER"})

	require.NoError(t, err)
	assert.Equal(t, "Owner", result)
}

func TestEngine_RenderString_ReusesParsedTemplate(t *testing.T) {
	engine := NewEngine()
	tmpl := "{{.n}}"

	_, err := engine.RenderString(tmpl, map[string]int{"n": 1})
	require.NoError(t, err)
	second, err := engine.RenderString(tmpl, map[string]int{"n": 2})
	require.NoError(t, err)

	assert.Equal(t, "2", second)
	assert.Len(t, engine.parsed, 1)
}

func TestEngine_RenderString_Error(t *testing.T) {
	engine := NewEngine()

	_, err := engine.RenderString("Hello {{.name", map[string]string{
		"name": "World",
	})

	assert.Error(t, err)
}

func TestEngine_RenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("[{{.Title}}]"), 0o644))

	result, err := NewEngine().RenderFile(path, struct{ Title string }{"x"})

	require.NoError(t, err)
	assert.Equal(t, "[x]", result)
}
