package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation represents a chat conversation
type Conversation struct {
	ID           uuid.UUID      `db:"id"`
	UserID       uuid.UUID      `db:"user_id"`
	Title        string         `db:"title"`
	ModelID      uuid.UUID      `db:"model_id"`
	ToolServerID uuid.NullUUID  `db:"tool_server_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// Message represents a single chat message. Messages are append-only and
// never mutated after creation; ordering is by created_at ascending.
type Message struct {
	ID             uuid.UUID `db:"id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	Role           string    `db:"role"`
	Content        string    `db:"content"`
	Metadata       []byte    `db:"metadata"`
	CreatedAt      time.Time `db:"created_at"`
}

// LLMModel is a configured model record: which provider family serves it
// and under what upstream model name.
type LLMModel struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Provider  string    `db:"provider"`
	ModelName string    `db:"model_name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToolServer is a configured external tool server record.
type ToolServer struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	ServerURL  string    `db:"server_url"`
	ServerType string    `db:"server_type"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// User represents an account
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ConversationRepository defines conversation storage operations
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	Get(ctx context.Context, userID, id uuid.UUID) (*Conversation, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// MessageRepository defines message storage operations
type MessageRepository interface {
	Create(ctx context.Context, message Message) (uuid.UUID, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]Message, error)
}

// SessionRepository stores the durable copy of a conversation's memory
// snapshot as an opaque JSON document. Get returns (nil, nil) when no
// session row exists yet.
type SessionRepository interface {
	GetMemory(ctx context.Context, conversationID uuid.UUID) ([]byte, error)
	PutMemory(ctx context.Context, conversationID uuid.UUID, data []byte) error
}

// ModelRepository defines model record lookups. Get returns (nil, nil)
// when no row matches.
type ModelRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*LLMModel, error)
}

// ToolServerRepository defines tool server record lookups. Get returns
// (nil, nil) when no row matches.
type ToolServerRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*ToolServer, error)
}

// UserRepository defines user storage operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// NullUUID converts a nullable UUID column value to a pointer, nil when unset.
func NullUUID(v uuid.NullUUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := v.UUID
	return &id
}
