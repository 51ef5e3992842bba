package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/parleyhq/parley-backend/internal/config"
	"github.com/parleyhq/parley-backend/internal/providers"
)

const (
	defaultAPIURL    = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// Provider implements the Anthropic provider
type Provider struct {
	config config.ProviderConfig
	apiURL string
	client *http.Client
}

// anthropicRequest represents a request to Anthropic's messages API
type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse represents a response from Anthropic's messages API
type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewProvider creates a new Anthropic provider
func NewProvider(cfg config.ProviderConfig) *Provider {
	apiURL := defaultAPIURL
	if cfg.BaseURL != "" {
		apiURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/messages"
	}

	return &Provider{
		config: cfg,
		apiURL: apiURL,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider tag
func (p *Provider) Name() string {
	return "anthropic"
}

// Complete performs a non-streaming completion
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, p.mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &providers.UpstreamError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Body:     string(bodyBytes),
		}
	}

	var anthropicResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &providers.CompletionResponse{
		Content:  content.String(),
		Model:    req.Model,
		Provider: p.Name(),
		Usage: providers.Usage{
			PromptTokens:     anthropicResp.Usage.InputTokens,
			CompletionTokens: anthropicResp.Usage.OutputTokens,
			TotalTokens:      anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
		},
	}, nil
}

// convertMessages translates to Anthropic's message shape. The API has no
// system-role slot in the messages array, so system content is folded into
// the first user message, separated by a blank line.
func convertMessages(messages []providers.Message) []anthropicMessage {
	var systemParts []string
	converted := make([]anthropicMessage, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, msg.Content)
		case "user", "assistant":
			converted = append(converted, anthropicMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	if len(systemParts) > 0 {
		for i := range converted {
			if converted[i].Role == "user" {
				converted[i].Content = strings.Join(systemParts, "\n\n") + "\n\n" + converted[i].Content
				break
			}
		}
	}

	return converted
}

func (p *Provider) mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return providers.ErrUpstreamTimeout
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return providers.ErrUpstreamTimeout
	}

	return err
}
