package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/parleyhq/parley-backend/internal/cache"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// ErrStore marks a durable-layer failure. Cache failures never carry it:
// the cache is a replica and the service degrades to the durable copy.
var ErrStore = errors.New("memory store failure")

// Service keeps bounded per-conversation context, cache-aside over a durable
// session row with write-through on update.
//
// Append is read-modify-write without per-conversation serialization: two
// concurrent appends to the same conversation can race and the second write
// wins. Callers that need strict ordering must serialize turns per
// conversation themselves.
type Service struct {
	sessions   repository.SessionRepository
	cache      cache.Cache
	maxHistory int
	ttl        time.Duration
	logger     *logrus.Logger
}

// NewService creates a new memory service. maxHistory caps the snapshot's
// conversation history; ttl bounds the cache entry's lifetime.
func NewService(sessions repository.SessionRepository, c cache.Cache, maxHistory int, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		sessions:   sessions,
		cache:      c,
		maxHistory: maxHistory,
		ttl:        ttl,
		logger:     logger,
	}
}

func cacheKey(conversationID uuid.UUID) string {
	return "chat_memory:" + conversationID.String()
}

// Read returns the conversation's snapshot: cache first, durable row on
// miss, empty default when neither exists. The result is written back to
// the cache with a fresh TTL before returning.
func (s *Service) Read(ctx context.Context, conversationID uuid.UUID) (*Snapshot, error) {
	key := cacheKey(conversationID)

	if data, err := s.cache.Get(ctx, key); err == nil {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return &snap, nil
		}
		s.logger.WithField("conversation_id", conversationID).Warn("discarding undecodable cached snapshot")
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WithError(err).Warn("memory cache read failed, falling back to store")
	}

	snap, err := s.loadDurable(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, key, snap)
	return snap, nil
}

// Append adds one entry to the conversation history, truncates to the
// configured cap dropping the oldest entries, and writes the snapshot
// through to both the durable row and the cache.
func (s *Service) Append(ctx context.Context, conversationID uuid.UUID, role, content string, metadata map[string]interface{}) error {
	snap, err := s.Read(ctx, conversationID)
	if err != nil {
		return err
	}

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	snap.ConversationHistory = append(snap.ConversationHistory, Entry{
		Role:     role,
		Content:  content,
		Metadata: metadata,
	})

	if excess := len(snap.ConversationHistory) - s.maxHistory; excess > 0 {
		snap.ConversationHistory = snap.ConversationHistory[excess:]
	}

	return s.write(ctx, conversationID, snap)
}

// Clear resets the durable snapshot to the empty default and drops the
// cache entry without repopulating it.
func (s *Service) Clear(ctx context.Context, conversationID uuid.UUID) error {
	data, err := json.Marshal(EmptySnapshot())
	if err != nil {
		return err
	}

	if err := s.sessions.PutMemory(ctx, conversationID, data); err != nil {
		return fmt.Errorf("%w: clearing session: %v", ErrStore, err)
	}

	if err := s.cache.Delete(ctx, cacheKey(conversationID)); err != nil {
		s.logger.WithError(err).Warn("memory cache delete failed")
	}

	return nil
}

// ContextSummary renders a clipped transcript of the most recent entries,
// suitable as a human-readable conversation digest.
func (s *Service) ContextSummary(ctx context.Context, conversationID uuid.UUID, recent int) (string, error) {
	snap, err := s.Read(ctx, conversationID)
	if err != nil {
		return "", err
	}

	history := snap.ConversationHistory
	if len(history) > recent {
		history = history[len(history)-recent:]
	}

	var parts []string
	for _, entry := range history {
		content := entry.Content
		if len(content) > 100 {
			content = content[:100] + "..."
		}
		switch entry.Role {
		case "user":
			parts = append(parts, "User: "+content)
		case "assistant":
			parts = append(parts, "Assistant: "+content)
		}
	}

	return strings.Join(parts, "\n"), nil
}

func (s *Service) loadDurable(ctx context.Context, conversationID uuid.UUID) (*Snapshot, error) {
	data, err := s.sessions.GetMemory(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading session: %v", ErrStore, err)
	}
	if len(data) == 0 {
		return EmptySnapshot(), nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decoding session: %v", ErrStore, err)
	}
	if snap.Version == 0 {
		snap.Version = SchemaVersion
	}
	if snap.ConversationHistory == nil {
		snap.ConversationHistory = []Entry{}
	}
	if snap.KeyPoints == nil {
		snap.KeyPoints = []string{}
	}

	return &snap, nil
}

// write persists to the durable row first, then refreshes the cache entry.
// There is no transaction across the two layers; the durable row wins on
// any later miss.
func (s *Service) write(ctx context.Context, conversationID uuid.UUID, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := s.sessions.PutMemory(ctx, conversationID, data); err != nil {
		return fmt.Errorf("%w: saving session: %v", ErrStore, err)
	}

	if err := s.cache.Set(ctx, cacheKey(conversationID), data, s.ttl); err != nil {
		s.logger.WithError(err).Warn("memory cache write failed")
	}

	return nil
}

func (s *Service) writeCache(ctx context.Context, key string, snap *Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.WithError(err).Warn("memory cache write failed")
	}
}
