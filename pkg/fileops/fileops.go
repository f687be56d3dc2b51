// Package fileops writes the files produced by the CLI: settings files and
// packed output.
package fileops

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kcaldas/ragpack/pkg/config"
	"gopkg.in/yaml.v3"
)

// ErrExists is returned when a write would replace a file without overwrite.
var ErrExists = errors.New("file already exists")

// Manager provides file operation functionality
type Manager interface {
	FileExists(path string) bool
	WriteFile(path string, content []byte, overwrite bool) error
	WriteYAML(path string, object any, overwrite bool) error
}

// DefaultManager implements Manager on the local filesystem. Paths may start
// with ~.
type DefaultManager struct {
}

// NewFileOpsManager creates a new default file manager
func NewFileOpsManager() Manager {
	return &DefaultManager{}
}

// FileExists checks if a file exists
func (m *DefaultManager) FileExists(path string) bool {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(expanded)
	return err == nil
}

// WriteFile writes content to path, creating parent directories as needed.
// The content is written to a temporary file first and renamed into place,
// so readers never see a partial file.
func (m *DefaultManager) WriteFile(path string, content []byte, overwrite bool) error {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(expanded); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, expanded)
		}
	}

	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(expanded)+".*")
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}
	return os.Rename(tmp.Name(), expanded)
}

// WriteYAML marshals object to YAML with two space indentation and writes it to path
func (m *DefaultManager) WriteYAML(path string, object any, overwrite bool) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(object); err != nil {
		return fmt.Errorf("error marshalling to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error marshalling to YAML: %w", err)
	}
	return m.WriteFile(path, buf.Bytes(), overwrite)
}
