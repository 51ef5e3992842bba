package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// ToolServerRepository implements repository.ToolServerRepository using PostgreSQL
type ToolServerRepository struct {
	db *sqlx.DB
}

// NewToolServerRepository creates a new PostgreSQL tool server repository
func NewToolServerRepository(db *sqlx.DB) repository.ToolServerRepository {
	return &ToolServerRepository{db: db}
}

// Get retrieves a tool server record, nil when no row matches
func (r *ToolServerRepository) Get(ctx context.Context, id uuid.UUID) (*repository.ToolServer, error) {
	var server repository.ToolServer
	query := `
		SELECT id, name, server_url, server_type, is_active, created_at, updated_at
		FROM tool_servers
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &server, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &server, nil
}
