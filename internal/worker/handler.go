package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"zoskagram/internal/cache"
	"zoskagram/internal/metrics"
	"zoskagram/internal/model"
	"zoskagram/internal/queue"
)

// PostLookup fetches a post when an event arrives without its feed score.
// This abstracts the repository layer so workers don't depend on DB directly.
type PostLookup interface {
	GetByID(ctx context.Context, postID string) (*model.Post, error)
}

// Handler applies post events to the global feed cache.
type Handler struct {
	feedCache cache.FeedCache
	posts     PostLookup
	log       *zap.Logger
}

// NewHandler creates a new event handler.
func NewHandler(feedCache cache.FeedCache, posts PostLookup, log *zap.Logger) *Handler {
	return &Handler{
		feedCache: feedCache,
		posts:     posts,
		log:       log.Named("handler"),
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.PostEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	default:
		h.log.Warn("Unknown event type", zap.String("type", event.Type))
		return nil
	}

	result := "handled"
	if err != nil {
		result = "failed"
	}
	metrics.Get().QueueEventsTotal.WithLabelValues(event.Type, result).Inc()

	h.log.Debug("Event handled",
		zap.String("type", event.Type),
		zap.String("post_id", event.PostID),
		zap.Duration("duration", time.Since(startTime)),
		zap.Error(err),
	)
	return err
}

func (h *Handler) handlePostCreated(ctx context.Context, event queue.PostEvent) error {
	score := event.Score
	if score == 0 {
		post, err := h.posts.GetByID(ctx, event.PostID)
		if errors.Is(err, model.ErrPostNotFound) {
			// Deleted before we got to it
			return nil
		}
		if err != nil {
			return fmt.Errorf("lookup post %s: %w", event.PostID, err)
		}
		score = post.CreatedAt.UnixMicro()
	}

	if err := h.feedCache.AddPost(ctx, event.PostID, score); err != nil {
		return fmt.Errorf("add post %s to feed: %w", event.PostID, err)
	}
	return nil
}

func (h *Handler) handlePostDeleted(ctx context.Context, event queue.PostEvent) error {
	if err := h.feedCache.RemovePost(ctx, event.PostID); err != nil {
		return fmt.Errorf("remove post %s from feed: %w", event.PostID, err)
	}
	return nil
}
