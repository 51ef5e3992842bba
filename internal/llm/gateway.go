package llm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/parleyhq/parley-backend/internal/config"
	"github.com/parleyhq/parley-backend/internal/providers"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// Params are per-call completion knobs. Zero values fall back to the
// gateway's configured defaults.
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Gateway normalizes completion calls across provider families: it resolves
// the model record, checks the credential, and dispatches to the adapter
// registered for the model's provider tag.
type Gateway struct {
	models    repository.ModelRepository
	registry  *providers.Registry
	providers map[string]config.ProviderConfig
	defaults  config.ChatConfig
	logger    *logrus.Logger
}

// NewGateway creates a new gateway
func NewGateway(
	models repository.ModelRepository,
	registry *providers.Registry,
	providerCfgs map[string]config.ProviderConfig,
	defaults config.ChatConfig,
	logger *logrus.Logger,
) *Gateway {
	return &Gateway{
		models:    models,
		registry:  registry,
		providers: providerCfgs,
		defaults:  defaults,
		logger:    logger,
	}
}

// Complete resolves the model and dispatches the completion to its provider
// adapter. Credential and dispatch failures happen before any network call.
func (g *Gateway) Complete(ctx context.Context, modelID uuid.UUID, messages []providers.Message, params Params) (*providers.CompletionResponse, error) {
	model, err := g.models.Get(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("resolving model %s: %w", modelID, err)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}

	provider := g.registry.Get(model.Provider)
	if provider == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, model.Provider)
	}

	if g.providers[model.Provider].APIKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, model.Provider)
	}

	maxTokens := params.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.defaults.MaxTokens
	}
	temperature := params.Temperature
	if temperature == 0 {
		temperature = g.defaults.Temperature
	}

	resp, err := provider.Complete(ctx, providers.CompletionRequest{
		Model:       model.ModelName,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"provider": model.Provider,
			"model":    model.ModelName,
		}).WithError(err).Warn("provider completion failed")
		return nil, err
	}

	return resp, nil
}
