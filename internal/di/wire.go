//go:build wireinject

package di

import (
	"github.com/google/wire"
	"github.com/kcaldas/ragpack/pkg/budget"
	"github.com/kcaldas/ragpack/pkg/config"
	"github.com/kcaldas/ragpack/pkg/logging"
	"github.com/kcaldas/ragpack/pkg/packer"
	"github.com/kcaldas/ragpack/pkg/tokens"
)

// SettingsPath is the settings file read when building a packer. Empty
// means environment and defaults only.
type SettingsPath string

// ProvideConfigManager provides a configuration manager
func ProvideConfigManager() config.Manager {
	return config.NewConfigManager()
}

// ProvideSettings loads the packer settings from the settings file and environment
func ProvideSettings(manager config.Manager, path SettingsPath) (config.Settings, error) {
	return config.LoadSettings(manager, string(path))
}

// GeminiProviders are the provider names counted with the local Gemini tokenizer
var GeminiProviders = []string{"google", "gemini", "vertex", "genai"}

// ProvideTokenizerRegistry provides the shared tokenizer registry
func ProvideTokenizerRegistry() *tokens.Registry {
	registry := tokens.NewRegistry()
	gemini := tokens.NewGeminiFactory(func(model string) (tokens.Tokenizer, error) {
		return tokens.NewTiktoken(model)
	})
	for _, provider := range GeminiProviders {
		registry.Register(provider, gemini)
	}
	return registry
}

// ProvideMaxDocumentTokens provides the default document budget function
func ProvideMaxDocumentTokens(registry *tokens.Registry, settings config.Settings) budget.MaxDocumentTokensFunc {
	return budget.NewDocumentTokenCalculator(registry, settings.ReservedOutputTokens).Func()
}

// PackerSet builds a packer from configuration.
var PackerSet = wire.NewSet(
	ProvideConfigManager,
	ProvideSettings,
	ProvideTokenizerRegistry,
	wire.Bind(new(budget.TokenizerSource), new(*tokens.Registry)),
	ProvideMaxDocumentTokens,
	packer.New,
)

// ProvidePacker is an injector function - Wire will generate the implementation
func ProvidePacker(path SettingsPath, logger logging.Logger) (*packer.Packer, error) {
	wire.Build(PackerSet)
	return nil, nil
}
