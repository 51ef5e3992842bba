package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// MessageRepository implements repository.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, message repository.Message) (uuid.UUID, error) {
	message.ID = uuid.New()
	message.CreatedAt = time.Now()

	if len(message.Metadata) == 0 {
		message.Metadata = []byte("{}")
	}

	query := `
		INSERT INTO messages (id, conversation_id, role, content, metadata, created_at)
		VALUES (:id, :conversation_id, :role, :content, :metadata, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, message)
	if err != nil {
		return uuid.Nil, err
	}

	return message.ID, nil
}

// ListByConversation retrieves messages for a conversation in creation order
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]repository.Message, error) {
	var messages []repository.Message
	query := `
		SELECT id, conversation_id, role, content, metadata, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	err := r.db.SelectContext(ctx, &messages, query, conversationID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
