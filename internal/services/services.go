package services

import (
	"github.com/sirupsen/logrus"
	"github.com/parleyhq/parley-backend/internal/cache"
	"github.com/parleyhq/parley-backend/internal/config"
	"github.com/parleyhq/parley-backend/internal/llm"
	"github.com/parleyhq/parley-backend/internal/mcp"
	"github.com/parleyhq/parley-backend/internal/memory"
	"github.com/parleyhq/parley-backend/internal/providers"
	"github.com/parleyhq/parley-backend/internal/repository"
	"github.com/parleyhq/parley-backend/internal/trace"
)

// Repositories groups the durable store surfaces consumed by the services.
type Repositories struct {
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Sessions      repository.SessionRepository
	Models        repository.ModelRepository
	ToolServers   repository.ToolServerRepository
}

// Services holds all service instances
type Services struct {
	Chat     *ChatService
	Memory   *memory.Service
	Gateway  *llm.Gateway
	Tools    *mcp.Client
	Recorder trace.Recorder
}

// NewServices wires the turn pipeline: memory over cache+store, gateway
// over the provider registry, tool client, trace recorder, orchestrator.
func NewServices(
	cfg *config.Config,
	repos Repositories,
	registry *providers.Registry,
	cacheClient cache.Cache,
	logger *logrus.Logger,
) *Services {
	var recorder trace.Recorder
	if lf := trace.NewLangfuseRecorder(cfg.Trace, logger); lf != nil {
		recorder = lf
	} else {
		recorder = trace.NewLogRecorder(logger)
	}

	mem := memory.NewService(repos.Sessions, cacheClient, cfg.Chat.MaxHistory, cfg.Chat.MemoryTTL, logger)
	gateway := llm.NewGateway(repos.Models, registry, cfg.Providers, cfg.Chat, logger)
	tools := mcp.NewClient(repos.ToolServers, cfg.MCP.Timeout, logger)

	chat := NewChatService(
		repos.Conversations,
		repos.Messages,
		mem,
		gateway,
		tools,
		recorder,
		cfg.Chat.ContextWindow,
		logger,
	)

	return &Services{
		Chat:     chat,
		Memory:   mem,
		Gateway:  gateway,
		Tools:    tools,
		Recorder: recorder,
	}
}
