package service

import (
	"context"

	"zoskagram/internal/model"
)

// FollowService manages follows between users. Edges are stored between
// profiles; every method here takes user ids.
type FollowService struct {
	follows *Toggler
}

func NewFollowService(follows *Toggler) *FollowService {
	return &FollowService{follows: follows}
}

// Toggle follows or unfollows followingID. Following yourself fails with
// ErrCannotFollowSelf before anything is read or written.
func (s *FollowService) Toggle(ctx context.Context, followerID, followingID string) (bool, error) {
	return s.follows.Toggle(ctx, followerID, followingID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID string) bool {
	return s.follows.Status(ctx, followerID, followingID)
}

func (s *FollowService) FollowerCount(ctx context.Context, userID string) int {
	return s.follows.Count(ctx, userID)
}

func (s *FollowService) FollowingCount(ctx context.Context, userID string) int {
	return s.follows.CountByActor(ctx, userID)
}

// FollowingSet returns which of userIDs the follower follows, in one query.
func (s *FollowService) FollowingSet(ctx context.Context, followerID string, userIDs []string) model.IDSet {
	return s.follows.BatchStatus(ctx, followerID, userIDs)
}

// FollowerCounts returns the follower count of each user, in one query.
func (s *FollowService) FollowerCounts(ctx context.Context, userIDs []string) map[string]int {
	return s.follows.BatchCount(ctx, userIDs)
}
