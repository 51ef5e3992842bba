package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-backend/internal/llm"
	"github.com/parleyhq/parley-backend/internal/providers"
)

// CompletionGateway is the completion surface the orchestrator consumes.
// Satisfied by *llm.Gateway.
type CompletionGateway interface {
	Complete(ctx context.Context, modelID uuid.UUID, messages []providers.Message, params llm.Params) (*providers.CompletionResponse, error)
}

// ToolInvoker is the tool-augmentation surface the orchestrator consumes.
// Satisfied by *mcp.Client.
type ToolInvoker interface {
	Invoke(ctx context.Context, serverID uuid.UUID, method string, params map[string]interface{}) (map[string]interface{}, error)
}
