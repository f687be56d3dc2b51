package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrNotSet is returned for configuration keys without a value.
var ErrNotSet = errors.New("configuration key not set")

// Manager reads configuration values by key
type Manager interface {
	GetStringWithDefault(key, defaultValue string) string
	GetInt(key string) (int, error)
}

// DefaultManager implements the Manager interface on top of environment variables
type DefaultManager struct {
}

// NewConfigManager creates a new default config manager
func NewConfigManager() Manager {
	return &DefaultManager{}
}

// GetStringWithDefault gets a configuration value by key, returns default if not found
func (m *DefaultManager) GetStringWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetInt gets an integer configuration value by key. A key without a value
// yields ErrNotSet.
func (m *DefaultManager) GetInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("%w: %s", ErrNotSet, key)
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("configuration key %s has invalid integer value: %s", key, value)
	}
	return intValue, nil
}
