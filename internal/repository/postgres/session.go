package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL.
// The memory document is stored as JSONB, one row per conversation.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

// GetMemory retrieves the memory document for a conversation, nil when no
// session row exists yet
func (r *SessionRepository) GetMemory(ctx context.Context, conversationID uuid.UUID) ([]byte, error) {
	var data []byte
	query := "SELECT memory_data FROM chat_sessions WHERE conversation_id = $1"

	err := r.db.GetContext(ctx, &data, query, conversationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return data, nil
}

// PutMemory upserts the memory document for a conversation
func (r *SessionRepository) PutMemory(ctx context.Context, conversationID uuid.UUID, data []byte) error {
	query := `
		INSERT INTO chat_sessions (conversation_id, memory_data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (conversation_id)
		DO UPDATE SET memory_data = EXCLUDED.memory_data, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, conversationID, data, time.Now())
	return err
}
