package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// ModelRepository implements repository.ModelRepository using PostgreSQL
type ModelRepository struct {
	db *sqlx.DB
}

// NewModelRepository creates a new PostgreSQL model repository
func NewModelRepository(db *sqlx.DB) repository.ModelRepository {
	return &ModelRepository{db: db}
}

// Get retrieves a model record, nil when no row matches
func (r *ModelRepository) Get(ctx context.Context, id uuid.UUID) (*repository.LLMModel, error) {
	var model repository.LLMModel
	query := `
		SELECT id, name, provider, model_name, is_active, created_at, updated_at
		FROM llm_models
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &model, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &model, nil
}
