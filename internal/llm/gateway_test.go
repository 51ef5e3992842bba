package llm

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parleyhq/parley-backend/internal/config"
	"github.com/parleyhq/parley-backend/internal/providers"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// fakeModelRepo serves a fixed set of model records
type fakeModelRepo struct {
	models map[uuid.UUID]*repository.LLMModel
}

func (f *fakeModelRepo) Get(ctx context.Context, id uuid.UUID) (*repository.LLMModel, error) {
	return f.models[id], nil
}

// countingProvider records how many completions it served
type countingProvider struct {
	name     string
	calls    int
	lastReq  providers.CompletionRequest
	response *providers.CompletionResponse
	err      error
}

func (p *countingProvider) Name() string { return p.name }

func (p *countingProvider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testChatDefaults() config.ChatConfig {
	return config.ChatConfig{
		MaxHistory:    50,
		ContextWindow: 10,
		MemoryTTL:     time.Hour,
		MaxTokens:     4000,
		Temperature:   0.7,
	}
}

func TestComplete_ModelNotFound(t *testing.T) {
	gw := NewGateway(
		&fakeModelRepo{models: map[uuid.UUID]*repository.LLMModel{}},
		providers.NewRegistry(),
		map[string]config.ProviderConfig{},
		testChatDefaults(),
		testLogger(),
	)

	_, err := gw.Complete(context.Background(), uuid.New(), nil, Params{})
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestComplete_UnsupportedProviderBeforeAnyCall(t *testing.T) {
	modelID := uuid.New()
	repo := &fakeModelRepo{models: map[uuid.UUID]*repository.LLMModel{
		modelID: {ID: modelID, Provider: "cohere", ModelName: "command-r"},
	}}
	openaiProvider := &countingProvider{name: "openai"}
	registry := providers.NewRegistry()
	registry.Register("openai", openaiProvider)

	gw := NewGateway(repo, registry, map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test"},
	}, testChatDefaults(), testLogger())

	_, err := gw.Complete(context.Background(), modelID, nil, Params{})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Zero(t, openaiProvider.calls)
}

func TestComplete_MissingCredentialBeforeAnyCall(t *testing.T) {
	modelID := uuid.New()
	repo := &fakeModelRepo{models: map[uuid.UUID]*repository.LLMModel{
		modelID: {ID: modelID, Provider: "openai", ModelName: "gpt-4"},
	}}
	p := &countingProvider{name: "openai"}
	registry := providers.NewRegistry()
	registry.Register(p.Name(), p)

	gw := NewGateway(repo, registry, map[string]config.ProviderConfig{
		"openai": {},
	}, testChatDefaults(), testLogger())

	_, err := gw.Complete(context.Background(), modelID, nil, Params{})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, p.calls)
}

func TestComplete_DispatchesWithDefaults(t *testing.T) {
	modelID := uuid.New()
	repo := &fakeModelRepo{models: map[uuid.UUID]*repository.LLMModel{
		modelID: {ID: modelID, Provider: "anthropic", ModelName: "claude-3-haiku"},
	}}
	p := &countingProvider{
		name: "anthropic",
		response: &providers.CompletionResponse{
			Content:  "hello",
			Model:    "claude-3-haiku",
			Provider: "anthropic",
		},
	}
	registry := providers.NewRegistry()
	registry.Register(p.Name(), p)

	gw := NewGateway(repo, registry, map[string]config.ProviderConfig{
		"anthropic": {APIKey: "sk-ant-test"},
	}, testChatDefaults(), testLogger())

	msgs := []providers.Message{{Role: "user", Content: "hi"}}
	resp, err := gw.Complete(context.Background(), modelID, msgs, Params{})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "claude-3-haiku", p.lastReq.Model)
	assert.Equal(t, 4000, p.lastReq.MaxTokens)
	assert.InDelta(t, 0.7, p.lastReq.Temperature, 0.001)
	assert.Equal(t, msgs, p.lastReq.Messages)
}

func TestComplete_ParamsOverrideDefaults(t *testing.T) {
	modelID := uuid.New()
	repo := &fakeModelRepo{models: map[uuid.UUID]*repository.LLMModel{
		modelID: {ID: modelID, Provider: "openai", ModelName: "gpt-4"},
	}}
	p := &countingProvider{name: "openai", response: &providers.CompletionResponse{Content: "ok"}}
	registry := providers.NewRegistry()
	registry.Register(p.Name(), p)

	gw := NewGateway(repo, registry, map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test"},
	}, testChatDefaults(), testLogger())

	_, err := gw.Complete(context.Background(), modelID, nil, Params{MaxTokens: 256, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 256, p.lastReq.MaxTokens)
	assert.InDelta(t, 0.2, p.lastReq.Temperature, 0.001)
}
