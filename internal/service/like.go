package service

import (
	"context"

	"zoskagram/internal/model"
)

// LikeService manages post likes.
type LikeService struct {
	likes *Toggler
}

func NewLikeService(likes *Toggler) *LikeService {
	return &LikeService{likes: likes}
}

// Toggle likes or unlikes a post and returns whether it is now liked.
func (s *LikeService) Toggle(ctx context.Context, userID, postID string) (bool, error) {
	return s.likes.Toggle(ctx, userID, postID)
}

func (s *LikeService) IsLiked(ctx context.Context, userID, postID string) bool {
	return s.likes.Status(ctx, userID, postID)
}

func (s *LikeService) Count(ctx context.Context, postID string) int {
	return s.likes.Count(ctx, postID)
}

// LikedSet returns which of postIDs the user liked, in one query.
func (s *LikeService) LikedSet(ctx context.Context, userID string, postIDs []string) model.IDSet {
	return s.likes.BatchStatus(ctx, userID, postIDs)
}

// Counts returns the like count of each post, in one query.
func (s *LikeService) Counts(ctx context.Context, postIDs []string) map[string]int {
	return s.likes.BatchCount(ctx, postIDs)
}
