package factory

import (
	"fmt"

	"github.com/parleyhq/parley-backend/internal/config"
	"github.com/parleyhq/parley-backend/internal/providers"
	"github.com/parleyhq/parley-backend/internal/providers/anthropic"
	"github.com/parleyhq/parley-backend/internal/providers/openai"
)

// CreateProvider creates a provider adapter for a configured provider tag
func CreateProvider(tag string, cfg config.ProviderConfig) (providers.Provider, error) {
	switch tag {
	case "openai":
		return openai.NewProvider(cfg), nil
	case "anthropic":
		return anthropic.NewProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider tag: %s", tag)
	}
}

// BuildRegistry registers an adapter for every configured provider
func BuildRegistry(cfgs map[string]config.ProviderConfig) (*providers.Registry, error) {
	registry := providers.NewRegistry()
	for tag, cfg := range cfgs {
		provider, err := CreateProvider(tag, cfg)
		if err != nil {
			return nil, err
		}
		registry.Register(tag, provider)
	}
	return registry, nil
}
