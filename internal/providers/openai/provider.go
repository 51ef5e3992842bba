package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/parleyhq/parley-backend/internal/config"
	"github.com/parleyhq/parley-backend/internal/providers"
)

// Provider implements the OpenAI provider
type Provider struct {
	config config.ProviderConfig
	client *openai.Client
}

// NewProvider creates a new OpenAI provider. The API key is checked at call
// time, not here, so a keyless deployment can still start.
func NewProvider(cfg config.ProviderConfig) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// Name returns the provider tag
func (p *Provider) Name() string {
	return "openai"
}

// Complete performs a non-streaming completion
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, p.mapError(err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &providers.CompletionResponse{
		Content:  content,
		Model:    req.Model,
		Provider: p.Name(),
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *Provider) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return providers.ErrUpstreamTimeout
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return providers.ErrUpstreamTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &providers.UpstreamError{
			Provider: p.Name(),
			Status:   apiErr.HTTPStatusCode,
			Body:     apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &providers.UpstreamError{
			Provider: p.Name(),
			Status:   reqErr.HTTPStatusCode,
			Body:     reqErr.Error(),
		}
	}

	return err
}
