package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/parleyhq/parley-backend/internal/llm"
	"github.com/parleyhq/parley-backend/internal/memory"
	"github.com/parleyhq/parley-backend/internal/providers"
	"github.com/parleyhq/parley-backend/internal/repository"
	"github.com/parleyhq/parley-backend/internal/trace"
)

// ErrConversationNotFound is returned when the conversation is absent or
// not owned by the calling user.
var ErrConversationNotFound = errors.New("conversation not found")

// toolMethod is the method invoked on a configured tool server for each turn.
const toolMethod = "process_message"

// TurnResult is the caller-visible outcome of one processed turn.
type TurnResult struct {
	MessageID uuid.UUID       `json:"message_id"`
	Content   string          `json:"content"`
	Model     string          `json:"model"`
	Provider  string          `json:"provider"`
	Usage     providers.Usage `json:"usage"`
	TraceID   string          `json:"trace_id"`
}

// ChatService owns the turn pipeline and conversation lifecycle.
//
// ProcessTurn runs strictly sequentially within a turn; turns on different
// conversations run fully in parallel. Concurrent turns on the same
// conversation race on the memory append (last write wins); callers that
// need strict ordering must serialize per conversation.
type ChatService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	memory        *memory.Service
	gateway       CompletionGateway
	tools         ToolInvoker
	recorder      trace.Recorder
	contextWindow int
	logger        *logrus.Logger
}

// NewChatService creates a new chat service. contextWindow is the number of
// remembered entries sent to the model with each turn.
func NewChatService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	mem *memory.Service,
	gateway CompletionGateway,
	tools ToolInvoker,
	recorder trace.Recorder,
	contextWindow int,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		memory:        mem,
		gateway:       gateway,
		tools:         tools,
		recorder:      recorder,
		contextWindow: contextWindow,
		logger:        logger,
	}
}

// ProcessTurn runs one user-message-in, assistant-message-out cycle.
//
// The user message is committed to the durable store before any network
// call, so the user's input survives a failed or cancelled turn. Provider
// failure is fatal; tool-server failure is absorbed and the draft response
// is returned unchanged.
func (s *ChatService) ProcessTurn(ctx context.Context, conversationID, userID uuid.UUID, text string) (*TurnResult, error) {
	conv, err := s.conversations.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	traceID := uuid.New().String()

	_, err = s.messages.Create(ctx, repository.Message{
		ConversationID: conversationID,
		Role:           "user",
		Content:        text,
	})
	if err != nil {
		return nil, s.failTurn(ctx, traceID, conversationID, userID, err)
	}

	snap, err := s.memory.Read(ctx, conversationID)
	if err != nil {
		return nil, s.failTurn(ctx, traceID, conversationID, userID, err)
	}

	history := snap.ConversationHistory
	if len(history) > s.contextWindow {
		history = history[len(history)-s.contextWindow:]
	}

	prompt := make([]providers.Message, 0, len(history)+1)
	for _, entry := range history {
		prompt = append(prompt, providers.Message{
			Role:    entry.Role,
			Content: entry.Content,
		})
	}
	prompt = append(prompt, providers.Message{Role: "user", Content: text})

	completion, err := s.gateway.Complete(ctx, conv.ModelID, prompt, llm.Params{})
	if err != nil {
		return nil, s.failTurn(ctx, traceID, conversationID, userID, err)
	}

	content := completion.Content

	if conv.ToolServerID.Valid {
		content = s.augment(ctx, traceID, conv, text, history, content)
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"model":    completion.Model,
		"provider": completion.Provider,
		"usage":    usageMap(completion.Usage),
		"trace_id": traceID,
	})
	if err != nil {
		return nil, s.failTurn(ctx, traceID, conversationID, userID, err)
	}

	messageID, err := s.messages.Create(ctx, repository.Message{
		ConversationID: conversationID,
		Role:           "assistant",
		Content:        content,
		Metadata:       metadata,
	})
	if err != nil {
		return nil, s.failTurn(ctx, traceID, conversationID, userID, err)
	}

	if err := s.memory.Append(ctx, conversationID, "user", text, nil); err != nil {
		return nil, s.failTurn(ctx, traceID, conversationID, userID, err)
	}
	if err := s.memory.Append(ctx, conversationID, "assistant", content, usageMap(completion.Usage)); err != nil {
		return nil, s.failTurn(ctx, traceID, conversationID, userID, err)
	}

	s.emit(func() {
		s.recorder.Generation(ctx, trace.Event{
			TraceID: traceID,
			Name:    "chat turn",
			Input:   map[string]interface{}{"message": text},
			Output:  map[string]interface{}{"response": content},
			Metadata: map[string]interface{}{
				"conversation_id": conversationID.String(),
				"user_id":         userID.String(),
				"model":           completion.Model,
				"provider":        completion.Provider,
			},
		})
	})

	return &TurnResult{
		MessageID: messageID,
		Content:   content,
		Model:     completion.Model,
		Provider:  completion.Provider,
		Usage:     completion.Usage,
		TraceID:   traceID,
	}, nil
}

// augment calls the conversation's tool server with the draft response.
// Any failure is traced and absorbed; the draft is returned unchanged.
// A successful result replaces the draft only when it carries an
// enhanced_response field.
func (s *ChatService) augment(ctx context.Context, traceID string, conv *repository.Conversation, text string, history []memory.Entry, draft string) string {
	serverID := conv.ToolServerID.UUID

	result, err := s.tools.Invoke(ctx, serverID, toolMethod, map[string]interface{}{
		"message":      text,
		"context":      history,
		"llm_response": draft,
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"conversation_id": conv.ID,
			"tool_server_id":  serverID,
		}).WithError(err).Warn("tool augmentation failed, keeping draft response")

		s.emit(func() {
			s.recorder.Error(ctx, traceID, err.Error(), "TOOL_SERVER_ERROR", map[string]interface{}{
				"conversation_id": conv.ID.String(),
				"tool_server_id":  serverID.String(),
			})
		})
		return draft
	}

	s.emit(func() {
		s.recorder.ToolCall(ctx, trace.Event{
			TraceID: traceID,
			Name:    toolMethod,
			Input:   map[string]interface{}{"message": text},
			Output:  result,
			Metadata: map[string]interface{}{
				"conversation_id": conv.ID.String(),
				"tool_server_id":  serverID.String(),
			},
		})
	})

	if enhanced, ok := result["enhanced_response"].(string); ok {
		return enhanced
	}
	return draft
}

// failTurn traces a fatal pipeline error and returns it unchanged.
func (s *ChatService) failTurn(ctx context.Context, traceID string, conversationID, userID uuid.UUID, err error) error {
	s.emit(func() {
		s.recorder.Error(ctx, traceID, err.Error(), "CHAT_ERROR", map[string]interface{}{
			"conversation_id": conversationID.String(),
			"user_id":         userID.String(),
		})
	})
	return err
}

// emit runs a trace emission, swallowing panics. Recorders carry no error
// return and absorb their own failures; this guard covers the rest.
func (s *ChatService) emit(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Warn("trace emission panicked")
		}
	}()
	fn()
}

func usageMap(u providers.Usage) map[string]interface{} {
	return map[string]interface{}{
		"prompt_tokens":     u.PromptTokens,
		"completion_tokens": u.CompletionTokens,
		"total_tokens":      u.TotalTokens,
	}
}
