package service

import (
	"context"

	"zoskagram/internal/model"
	"zoskagram/internal/repository"
)

// SaveService manages the posts a user bookmarked.
type SaveService struct {
	saves *Toggler
	posts repository.PostRepository
	feed  *FeedService
}

func NewSaveService(saves *Toggler, posts repository.PostRepository, feed *FeedService) *SaveService {
	return &SaveService{saves: saves, posts: posts, feed: feed}
}

func (s *SaveService) Toggle(ctx context.Context, userID, postID string) (bool, error) {
	return s.saves.Toggle(ctx, userID, postID)
}

func (s *SaveService) IsSaved(ctx context.Context, userID, postID string) bool {
	return s.saves.Status(ctx, userID, postID)
}

// Count returns how many users saved the post.
func (s *SaveService) Count(ctx context.Context, postID string) int {
	return s.saves.Count(ctx, postID)
}

func (s *SaveService) Counts(ctx context.Context, postIDs []string) map[string]int {
	return s.saves.BatchCount(ctx, postIDs)
}

func (s *SaveService) SavedSet(ctx context.Context, userID string, postIDs []string) model.IDSet {
	return s.saves.BatchStatus(ctx, userID, postIDs)
}

// ListSaved returns the user's saved posts, most recently saved first,
// enriched like feed posts.
func (s *SaveService) ListSaved(ctx context.Context, userID string) ([]model.FeedPost, error) {
	if userID == "" {
		return nil, model.ErrUnauthorized
	}
	posts, err := s.posts.ListSaved(ctx, userID)
	if err != nil {
		return nil, model.Failed("list saved posts", err)
	}
	return s.feed.Enrich(ctx, userID, posts), nil
}
