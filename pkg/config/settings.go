package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadSettings.
const (
	EnvEmbeddingChunkSize   = "RAGPACK_EMBEDDING_CHUNK_SIZE"
	EnvMaxFederatedSections = "RAGPACK_MAX_FEDERATED_SECTIONS"
	EnvReservedOutputTokens = "RAGPACK_RESERVED_OUTPUT_TOKENS"
	EnvDefaultProvider      = "RAGPACK_DEFAULT_PROVIDER"
	EnvDefaultModel         = "RAGPACK_DEFAULT_MODEL"
)

// DefaultSettingsFile is the settings file looked up by the CLI.
const DefaultSettingsFile = "~/.ragpack/config.yaml"

// Settings are the process wide knobs of the packer.
type Settings struct {
	EmbeddingChunkSize   int    `yaml:"embedding_chunk_size"`
	MaxFederatedSections int    `yaml:"max_federated_sections"`
	ReservedOutputTokens int    `yaml:"reserved_output_tokens"`
	DefaultProvider      string `yaml:"default_provider"`
	DefaultModel         string `yaml:"default_model"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		EmbeddingChunkSize:   512,
		MaxFederatedSections: 5,
		ReservedOutputTokens: 1024,
		DefaultProvider:      "openai",
		DefaultModel:         "gpt-4o",
	}
}

// Validate checks that the settings can drive a pruning pass.
func (s Settings) Validate() error {
	if s.EmbeddingChunkSize <= 0 {
		return fmt.Errorf("embedding_chunk_size must be positive, got %d", s.EmbeddingChunkSize)
	}
	if s.MaxFederatedSections < 0 {
		return fmt.Errorf("max_federated_sections must not be negative, got %d", s.MaxFederatedSections)
	}
	if s.ReservedOutputTokens < 0 {
		return fmt.Errorf("reserved_output_tokens must not be negative, got %d", s.ReservedOutputTokens)
	}
	return nil
}

// LoadSettings builds settings from the defaults, then the YAML file at
// path when it exists, then environment overrides from m. An empty path
// skips the file.
func LoadSettings(m Manager, path string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		if err := LoadYAML(path, &s); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("load settings: %w", err)
		}
	}

	for _, o := range []struct {
		key   string
		value *int
	}{
		{EnvEmbeddingChunkSize, &s.EmbeddingChunkSize},
		{EnvMaxFederatedSections, &s.MaxFederatedSections},
		{EnvReservedOutputTokens, &s.ReservedOutputTokens},
	} {
		v, err := m.GetInt(o.key)
		switch {
		case errors.Is(err, ErrNotSet):
		case err != nil:
			return Settings{}, err
		default:
			*o.value = v
		}
	}
	s.DefaultProvider = m.GetStringWithDefault(EnvDefaultProvider, s.DefaultProvider)
	s.DefaultModel = m.GetStringWithDefault(EnvDefaultModel, s.DefaultModel)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Clean(expanded), nil
}

// LoadYAML decodes the YAML (or JSON) file at path into out. See DecodeYAML.
// Files ending in .json or .jsonc may carry comments and trailing commas.
func LoadYAML(path string, out any) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(expanded)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	if err := DecodeYAML(bytes.NewReader(data), out); err != nil {
		return fmt.Errorf("decode %s: %w", expanded, err)
	}
	return nil
}

// DecodeYAML decodes one YAML (or JSON) document from r into out. Unknown
// fields are rejected so that typos in request files surface early. Empty
// input leaves out untouched.
func DecodeYAML(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
