package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"zoskagram/internal/cache"
	"zoskagram/internal/model"
	"zoskagram/internal/queue"
	"zoskagram/internal/redis/redistest"
	"zoskagram/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// mockFeedCache records feed mutations in memory.
type mockFeedCache struct {
	mu    sync.Mutex
	posts map[string]int64
}

func newMockFeedCache() *mockFeedCache {
	return &mockFeedCache{posts: make(map[string]int64)}
}

func (m *mockFeedCache) AddPost(ctx context.Context, postID string, score int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[postID] = score
	return nil
}

func (m *mockFeedCache) RemovePost(ctx context.Context, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, postID)
	return nil
}

func (m *mockFeedCache) GetPage(ctx context.Context, after *model.PostScore, limit int) ([]model.PostScore, error) {
	return nil, nil
}

func (m *mockFeedCache) Warm(ctx context.Context, posts []model.PostScore) error { return nil }
func (m *mockFeedCache) Exists(ctx context.Context) (bool, error)                { return true, nil }
func (m *mockFeedCache) Size(ctx context.Context) (int64, error)                 { return int64(len(m.posts)), nil }

func (m *mockFeedCache) score(postID string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.posts[postID]
	return s, ok
}

// mockPosts serves posts by id.
type mockPosts map[string]*model.Post

func (m mockPosts) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	if p, ok := m[postID]; ok {
		return p, nil
	}
	return nil, model.ErrPostNotFound
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandler_PostCreatedAndDeleted(t *testing.T) {
	ctx := context.Background()
	feed := newMockFeedCache()
	h := worker.NewHandler(feed, mockPosts{}, zap.NewNop())

	created := time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC)
	require.NoError(t, h.HandleEvent(ctx, queue.NewPostCreatedEvent("p1", "u1", created)))

	score, ok := feed.score("p1")
	require.True(t, ok)
	assert.Equal(t, created.UnixMicro(), score)

	require.NoError(t, h.HandleEvent(ctx, queue.NewPostDeletedEvent("p1", "u1")))
	_, ok = feed.score("p1")
	assert.False(t, ok)
}

func TestHandler_PostCreatedWithoutScoreLooksUpPost(t *testing.T) {
	ctx := context.Background()
	feed := newMockFeedCache()
	created := time.Now().UTC()
	h := worker.NewHandler(feed, mockPosts{"p1": {ID: "p1", CreatedAt: created}}, zap.NewNop())

	require.NoError(t, h.HandleEvent(ctx, queue.PostEvent{Type: queue.EventPostCreated, PostID: "p1"}))
	score, ok := feed.score("p1")
	require.True(t, ok)
	assert.Equal(t, created.UnixMicro(), score)

	// A post deleted before the event is handled is skipped
	require.NoError(t, h.HandleEvent(ctx, queue.PostEvent{Type: queue.EventPostCreated, PostID: "gone"}))
	_, ok = feed.score("gone")
	assert.False(t, ok)
}

func TestHandler_UnknownEventIgnored(t *testing.T) {
	h := worker.NewHandler(newMockFeedCache(), mockPosts{}, zap.NewNop())
	assert.NoError(t, h.HandleEvent(context.Background(), queue.PostEvent{Type: "something_else", PostID: "p"}))
}

// =============================================================================
// Integration Tests
// =============================================================================

// TestManager_ConsumesStream publishes through Redis Streams and waits for
// the workers to apply the events to the real feed cache.
func TestManager_ConsumesStream(t *testing.T) {
	ctx := context.Background()
	client := redistest.New(t, 3)
	log := zap.NewNop()

	feed := cache.NewFeedCache(client, log)
	publisher := queue.NewPublisher(client, log)
	consumer := queue.NewConsumer(client, log)
	handler := worker.NewHandler(feed, mockPosts{}, log)

	manager := worker.NewManager(consumer, handler, worker.ManagerConfig{
		WorkerCount:  2,
		BlockTimeout: 100 * time.Millisecond,
	}, log)
	// Publish before starting so one worker reads the whole batch in order
	now := time.Now().UTC()
	_, err := publisher.Publish(ctx, queue.StreamPosts, queue.NewPostCreatedEvent("p1", "u1", now))
	require.NoError(t, err)
	_, err = publisher.Publish(ctx, queue.StreamPosts, queue.NewPostCreatedEvent("p2", "u1", now.Add(time.Second)))
	require.NoError(t, err)
	_, err = publisher.Publish(ctx, queue.StreamPosts, queue.NewPostDeletedEvent("p1", "u1"))
	require.NoError(t, err)

	require.NoError(t, manager.Start(ctx))
	defer manager.Stop()

	require.Eventually(t, func() bool {
		pending, err := consumer.Pending(ctx, queue.StreamPosts, queue.ConsumerGroupFeed)
		if err != nil || pending != 0 {
			return false
		}
		page, err := feed.GetPage(ctx, nil, 10)
		return err == nil && len(page) == 1 && page[0].PostID == "p2"
	}, 5*time.Second, 50*time.Millisecond)
}
