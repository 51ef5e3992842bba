package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// ConversationRepository implements repository.ConversationRepository using PostgreSQL
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new PostgreSQL conversation repository
func NewConversationRepository(db *sqlx.DB) repository.ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conv *repository.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt

	query := `
		INSERT INTO conversations (id, user_id, title, model_id, tool_server_id, created_at, updated_at)
		VALUES (:id, :user_id, :title, :model_id, :tool_server_id, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, conv)
	return err
}

// Get retrieves a conversation owned by the given user
func (r *ConversationRepository) Get(ctx context.Context, userID, id uuid.UUID) (*repository.Conversation, error) {
	var conv repository.Conversation
	query := `
		SELECT id, user_id, title, model_id, tool_server_id, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`

	err := r.db.GetContext(ctx, &conv, query, id, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &conv, nil
}

// List retrieves all conversations for a user, most recently updated first
func (r *ConversationRepository) List(ctx context.Context, userID uuid.UUID) ([]*repository.Conversation, error) {
	var convs []*repository.Conversation
	query := `
		SELECT id, user_id, title, model_id, tool_server_id, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	err := r.db.SelectContext(ctx, &convs, query, userID)
	if err != nil {
		return nil, err
	}

	return convs, nil
}

// Delete deletes a conversation; messages and the session row cascade
func (r *ConversationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := "DELETE FROM conversations WHERE id = $1 AND user_id = $2"
	_, err := r.db.ExecContext(ctx, query, id, userID)
	return err
}
