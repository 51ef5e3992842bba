package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parleyhq/parley-backend/internal/cache"
)

// fakeSessionRepo is an in-memory SessionRepository
type fakeSessionRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID][]byte
	getErr  error
	putErr  error
	getHits int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: map[uuid.UUID][]byte{}}
}

func (f *fakeSessionRepo) GetMemory(ctx context.Context, conversationID uuid.UUID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.getHits++
	return f.rows[conversationID], nil
}

func (f *fakeSessionRepo) PutMemory(ctx context.Context, conversationID uuid.UUID, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.rows[conversationID] = append([]byte(nil), data...)
	return nil
}

// failingCache errors on every operation
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("cache down")
}
func (failingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("cache down")
}
func (failingCache) Delete(ctx context.Context, key string) error {
	return errors.New("cache down")
}

func newTestService(sessions *fakeSessionRepo, c cache.Cache, maxHistory int) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewService(sessions, c, maxHistory, time.Hour, logger)
}

func TestRead_EmptyWhenNothingStored(t *testing.T) {
	svc := newTestService(newFakeSessionRepo(), cache.NewMemoryCache(), 50)

	snap, err := svc.Read(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, snap.Version)
	assert.Empty(t, snap.ConversationHistory)
	assert.NotNil(t, snap.KeyPoints)
}

func TestAppend_ReadAfterWrite(t *testing.T) {
	svc := newTestService(newFakeSessionRepo(), cache.NewMemoryCache(), 50)
	convID := uuid.New()

	require.NoError(t, svc.Append(context.Background(), convID, "user", "hello", nil))
	require.NoError(t, svc.Append(context.Background(), convID, "assistant", "hi there", map[string]interface{}{"model": "gpt-4"}))

	snap, err := svc.Read(context.Background(), convID)
	require.NoError(t, err)
	require.Len(t, snap.ConversationHistory, 2)
	assert.Equal(t, "user", snap.ConversationHistory[0].Role)
	assert.Equal(t, "hello", snap.ConversationHistory[0].Content)
	assert.Equal(t, "assistant", snap.ConversationHistory[1].Role)
	assert.Equal(t, "gpt-4", snap.ConversationHistory[1].Metadata["model"])
}

func TestAppend_CapsHistoryDroppingOldest(t *testing.T) {
	const maxHistory = 50
	svc := newTestService(newFakeSessionRepo(), cache.NewMemoryCache(), maxHistory)
	convID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		require.NoError(t, svc.Append(ctx, convID, role, fmt.Sprintf("entry %d", i), nil))

		snap, err := svc.Read(ctx, convID)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(snap.ConversationHistory), maxHistory)
	}

	snap, err := svc.Read(ctx, convID)
	require.NoError(t, err)
	require.Len(t, snap.ConversationHistory, maxHistory)
	// The oldest surviving entry is the one appended 50 turns ago.
	assert.Equal(t, "entry 150", snap.ConversationHistory[0].Content)
	assert.Equal(t, "entry 199", snap.ConversationHistory[maxHistory-1].Content)
}

func TestRead_FallsBackToStoreWhenCacheFails(t *testing.T) {
	sessions := newFakeSessionRepo()
	healthy := newTestService(sessions, cache.NewMemoryCache(), 50)
	convID := uuid.New()
	require.NoError(t, healthy.Append(context.Background(), convID, "user", "durable copy", nil))

	degraded := newTestService(sessions, failingCache{}, 50)
	snap, err := degraded.Read(context.Background(), convID)
	require.NoError(t, err)
	require.Len(t, snap.ConversationHistory, 1)
	assert.Equal(t, "durable copy", snap.ConversationHistory[0].Content)
}

func TestAppend_SurvivesCacheWriteFailure(t *testing.T) {
	svc := newTestService(newFakeSessionRepo(), failingCache{}, 50)
	convID := uuid.New()

	require.NoError(t, svc.Append(context.Background(), convID, "user", "hello", nil))

	snap, err := svc.Read(context.Background(), convID)
	require.NoError(t, err)
	require.Len(t, snap.ConversationHistory, 1)
}

func TestAppend_StoreFailureIsFatal(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.putErr = errors.New("disk full")
	svc := newTestService(sessions, cache.NewMemoryCache(), 50)

	err := svc.Append(context.Background(), uuid.New(), "user", "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStore)
}

func TestClear_ResetsDurableAndDropsCache(t *testing.T) {
	sessions := newFakeSessionRepo()
	svc := newTestService(sessions, cache.NewMemoryCache(), 50)
	convID := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, convID, "user", "hello", nil))
	require.NoError(t, svc.Clear(ctx, convID))

	snap, err := svc.Read(ctx, convID)
	require.NoError(t, err)
	assert.Empty(t, snap.ConversationHistory)

	// The durable row holds the empty snapshot, not a deleted one.
	sessions.mu.Lock()
	stored := sessions.rows[convID]
	sessions.mu.Unlock()
	assert.NotEmpty(t, stored)
}

func TestRead_RepopulatesCacheFromStore(t *testing.T) {
	sessions := newFakeSessionRepo()
	c := cache.NewMemoryCache()
	svc := newTestService(sessions, c, 50)
	convID := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, convID, "user", "hello", nil))
	require.NoError(t, c.Delete(ctx, "chat_memory:"+convID.String()))

	snap, err := svc.Read(ctx, convID)
	require.NoError(t, err)
	require.Len(t, snap.ConversationHistory, 1)

	// The miss repopulated the cache entry.
	data, err := c.Get(ctx, "chat_memory:"+convID.String())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestContextSummary_ClipsAndLabels(t *testing.T) {
	svc := newTestService(newFakeSessionRepo(), cache.NewMemoryCache(), 50)
	convID := uuid.New()
	ctx := context.Background()

	long := ""
	for i := 0; i < 30; i++ {
		long += "0123456789"
	}
	require.NoError(t, svc.Append(ctx, convID, "user", long, nil))
	require.NoError(t, svc.Append(ctx, convID, "assistant", "short reply", nil))
	require.NoError(t, svc.Append(ctx, convID, "system", "ignored role", nil))

	summary, err := svc.ContextSummary(ctx, convID, 10)
	require.NoError(t, err)
	assert.Contains(t, summary, "User: "+long[:100]+"...")
	assert.Contains(t, summary, "Assistant: short reply")
	assert.NotContains(t, summary, "ignored role")
}
