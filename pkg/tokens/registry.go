package tokens

import (
	"fmt"
	"strings"
	"sync"
)

// Factory builds a tokenizer for a model of one provider.
type Factory func(model string) (Tokenizer, error)

// Registry hands out tokenizers keyed by (provider, model) and caches them,
// since building a BPE encoding is expensive.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	fallback  Factory
	cache     map[string]Tokenizer
}

// NewRegistry creates a registry whose fallback factory is tiktoken.
func NewRegistry() *Registry {
	return NewRegistryWithFallback(func(model string) (Tokenizer, error) {
		return NewTiktoken(model)
	})
}

// NewRegistryWithFallback creates a registry that builds tokenizers with
// fallback for any provider without a registered factory.
func NewRegistryWithFallback(fallback Factory) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		fallback:  fallback,
		cache:     make(map[string]Tokenizer),
	}
}

// Register installs the factory used for every model of provider.
func (r *Registry) Register(provider string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	provider = normalize(provider)
	r.factories[provider] = factory
	for key := range r.cache {
		if strings.HasPrefix(key, provider+"/") {
			delete(r.cache, key)
		}
	}
}

// Get returns the tokenizer for the given provider and model.
func (r *Registry) Get(provider, model string) (Tokenizer, error) {
	provider = normalize(provider)
	key := provider + "/" + strings.TrimSpace(model)

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.cache[key]; ok {
		return t, nil
	}

	factory, ok := r.factories[provider]
	if !ok {
		factory = r.fallback
	}
	if factory == nil {
		return nil, fmt.Errorf("no tokenizer available for %s", key)
	}

	t, err := factory(strings.TrimSpace(model))
	if err != nil {
		return nil, fmt.Errorf("tokenizer for %s: %w", key, err)
	}
	r.cache[key] = t
	return t, nil
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
