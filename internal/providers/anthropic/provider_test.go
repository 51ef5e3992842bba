package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parleyhq/parley-backend/internal/config"
	"github.com/parleyhq/parley-backend/internal/providers"
)

func anthropicStub(t *testing.T, capture *anthropicRequest, reply anthropicResponse) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(capture))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}))
}

func testProvider(baseURL string) *Provider {
	return NewProvider(config.ProviderConfig{
		APIKey:  "sk-ant-test",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestComplete_FoldsSystemIntoFirstUserMessage(t *testing.T) {
	var got anthropicRequest
	srv := anthropicStub(t, &got, anthropicResponse{
		ID:    "msg_1",
		Model: "claude-3-haiku",
		Content: []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: "hello"}},
	})
	defer srv.Close()

	_, err := testProvider(srv.URL).Complete(context.Background(), providers.CompletionRequest{
		Model: "claude-3-haiku",
		Messages: []providers.Message{
			{Role: "system", Content: "You are terse."},
			{Role: "user", Content: "Hi."},
			{Role: "assistant", Content: "Hello."},
			{Role: "user", Content: "Bye."},
		},
		MaxTokens: 100,
	})
	require.NoError(t, err)

	require.Len(t, got.Messages, 3)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "You are terse.\n\nHi.", got.Messages[0].Content)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "Hello.", got.Messages[1].Content)
	// Only the first user message carries the folded system content.
	assert.Equal(t, "Bye.", got.Messages[2].Content)
}

func TestComplete_JoinsTextBlocksAndSumsUsage(t *testing.T) {
	var got anthropicRequest
	reply := anthropicResponse{
		ID:    "msg_2",
		Model: "claude-3-haiku",
		Content: []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{
			{Type: "text", Text: "part one "},
			{Type: "tool_use", Text: "skipped"},
			{Type: "text", Text: "part two"},
		},
	}
	reply.Usage.InputTokens = 12
	reply.Usage.OutputTokens = 7
	srv := anthropicStub(t, &got, reply)
	defer srv.Close()

	resp, err := testProvider(srv.URL).Complete(context.Background(), providers.CompletionRequest{
		Model:     "claude-3-haiku",
		Messages:  []providers.Message{{Role: "user", Content: "Hi."}},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", resp.Content)
	assert.Equal(t, "anthropic", resp.Provider)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 7, resp.Usage.CompletionTokens)
	assert.Equal(t, 19, resp.Usage.TotalTokens)
}

func TestComplete_Non200IsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	_, err := testProvider(srv.URL).Complete(context.Background(), providers.CompletionRequest{
		Model:     "claude-3-haiku",
		Messages:  []providers.Message{{Role: "user", Content: "Hi."}},
		MaxTokens: 100,
	})
	var upstream *providers.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Equal(t, "anthropic", upstream.Provider)
	assert.Contains(t, upstream.Body, "rate_limit_error")
}

func TestComplete_TimeoutIsUpstreamTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewProvider(config.ProviderConfig{
		APIKey:  "sk-ant-test",
		BaseURL: srv.URL,
		Timeout: 20 * time.Millisecond,
	})

	_, err := p.Complete(context.Background(), providers.CompletionRequest{
		Model:     "claude-3-haiku",
		Messages:  []providers.Message{{Role: "user", Content: "Hi."}},
		MaxTokens: 100,
	})
	assert.ErrorIs(t, err, providers.ErrUpstreamTimeout)
}

func TestConvertMessages_NoUserMessageDropsNothing(t *testing.T) {
	converted := convertMessages([]providers.Message{
		{Role: "system", Content: "rules"},
		{Role: "assistant", Content: "greeting"},
	})
	require.Len(t, converted, 1)
	assert.Equal(t, "assistant", converted[0].Role)
	assert.Equal(t, "greeting", converted[0].Content)
}
