package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// CreateConversation creates a new conversation bound to a model and,
// optionally, a tool server.
func (s *ChatService) CreateConversation(ctx context.Context, userID uuid.UUID, title string, modelID uuid.UUID, toolServerID *uuid.UUID) (*repository.Conversation, error) {
	conv := &repository.Conversation{
		UserID:  userID,
		Title:   title,
		ModelID: modelID,
	}
	if toolServerID != nil {
		conv.ToolServerID = uuid.NullUUID{UUID: *toolServerID, Valid: true}
	}

	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}

	return conv, nil
}

// GetConversation retrieves a conversation owned by the user
func (s *ChatService) GetConversation(ctx context.Context, userID, id uuid.UUID) (*repository.Conversation, error) {
	conv, err := s.conversations.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// ListConversations returns all conversations for a user
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*repository.Conversation, error) {
	return s.conversations.List(ctx, userID)
}

// DeleteConversation clears the conversation's memory and deletes the
// conversation; message rows cascade with it.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, id uuid.UUID) error {
	conv, err := s.conversations.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}

	if err := s.memory.Clear(ctx, id); err != nil {
		s.logger.WithField("conversation_id", id).WithError(err).Warn("failed to clear conversation memory")
	}

	return s.conversations.Delete(ctx, userID, id)
}

// GetMessages returns the conversation's messages in creation order
func (s *ChatService) GetMessages(ctx context.Context, userID, id uuid.UUID) ([]repository.Message, error) {
	conv, err := s.conversations.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	return s.messages.ListByConversation(ctx, id)
}
