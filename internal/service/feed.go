package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"zoskagram/internal/cache"
	"zoskagram/internal/metrics"
	"zoskagram/internal/model"
	"zoskagram/internal/repository"
)

// FeedService serves the global timeline: every post, newest first.
type FeedService struct {
	feedCache cache.FeedCache // nil serves straight from the database
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	likes     *Toggler
	saves     *Toggler
	log       *zap.Logger
}

func NewFeedService(
	feedCache cache.FeedCache,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	likes *Toggler,
	saves *Toggler,
	log *zap.Logger,
) *FeedService {
	return &FeedService{
		feedCache: feedCache,
		postRepo:  postRepo,
		userRepo:  userRepo,
		likes:     likes,
		saves:     saves,
		log:       log.Named("feed"),
	}
}

// GetFeed returns one page of the timeline for viewerID (empty for guests).
//
// Flow:
//  1. Warm the cache from the database if the key is missing
//  2. Read post ids from the cache (score-ordered, ties by id)
//  3. Hydrate posts from the database and enrich them with batch queries
//  4. When the cache runs out, continue the page from the database, since
//     the cache only holds the newest FeedCacheCap posts
//
// If Redis fails the page is read from the database instead. Both paths
// use the same "id:unixmicro" cursor.
func (s *FeedService) GetFeed(ctx context.Context, viewerID string, cursor *string, limit int) (*model.FeedResponse, error) {
	startTime := time.Now()
	limit = clampLimit(limit)

	var after *model.PostScore
	if cursor != nil {
		pos, err := parseFeedCursor(*cursor)
		if err != nil {
			return nil, err
		}
		after = &pos
	}

	if s.feedCache != nil {
		resp, err := s.fromCache(ctx, viewerID, after, limit)
		if err == nil {
			s.log.Debug("Feed served from cache",
				zap.Int("posts", len(resp.Posts)), zap.Duration("duration", time.Since(startTime)))
			return resp, nil
		}
		s.log.Warn("Feed cache unavailable, reading database", zap.Error(err))
	}

	posts, next, err := s.listRecent(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}
	return &model.FeedResponse{
		Posts:      s.Enrich(ctx, viewerID, posts),
		NextCursor: next,
		HasMore:    next != nil,
	}, nil
}

func (s *FeedService) fromCache(ctx context.Context, viewerID string, after *model.PostScore, limit int) (*model.FeedResponse, error) {
	exists, err := s.feedCache.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.Get().FeedCacheHitsTotal.Inc()
	} else {
		metrics.Get().FeedCacheMissesTotal.Inc()
		if err := s.Warm(ctx); err != nil {
			return nil, err
		}
	}

	// One extra entry tells whether another page exists
	entries, err := s.feedCache.GetPage(ctx, after, limit+1)
	if err != nil {
		return nil, err
	}

	var nextCursor *string
	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		c := formatFeedCursor(last)
		nextCursor = &c
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.PostID
	}
	// Entries whose post is gone are dropped here
	posts, err := s.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	if !hasMore {
		// Older posts were trimmed from the cache; pick up where it ends
		var from *string
		if len(entries) > 0 {
			c := formatFeedCursor(entries[len(entries)-1])
			from = &c
		} else if after != nil {
			c := formatFeedCursor(*after)
			from = &c
		}

		remaining := limit - len(entries)
		if remaining == 0 {
			older, _, err := s.listRecent(ctx, from, 1)
			if err != nil {
				return nil, err
			}
			if len(older) > 0 {
				hasMore, nextCursor = true, from
			}
		} else {
			older, next, err := s.listRecent(ctx, from, remaining)
			if err != nil {
				return nil, err
			}
			posts = append(posts, older...)
			hasMore, nextCursor = next != nil, next
		}
	}

	return &model.FeedResponse{
		Posts:      s.Enrich(ctx, viewerID, posts),
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (s *FeedService) listRecent(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
	posts, next, err := s.postRepo.ListRecent(ctx, cursor, limit)
	if err != nil {
		if isDomainError(err) {
			return nil, nil, err
		}
		return nil, nil, model.Failed("list feed", err)
	}
	return posts, next, nil
}

// Warm loads the newest posts into the cache.
func (s *FeedService) Warm(ctx context.Context) error {
	if s.feedCache == nil {
		return nil
	}
	scores, err := s.postRepo.RecentScores(ctx, cache.FeedCacheCap)
	if err != nil {
		return fmt.Errorf("get recent posts: %w", err)
	}
	return s.feedCache.Warm(ctx, scores)
}

// Enrich attaches author, like/comment counts and the viewer's like/save
// state to posts. Every lookup is one batch query; failures leave the
// zero values in place.
func (s *FeedService) Enrich(ctx context.Context, viewerID string, posts []model.Post) []model.FeedPost {
	out := make([]model.FeedPost, len(posts))
	if len(posts) == 0 {
		return out
	}

	postIDs := make([]string, len(posts))
	authorIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		authorIDs[i] = p.UserID
	}

	authors, err := s.userRepo.GetSummaries(ctx, authorIDs)
	if err != nil {
		s.log.Warn("Failed to load authors", zap.Error(err))
	}
	commentCounts, err := s.postRepo.CommentCounts(ctx, postIDs)
	if err != nil {
		s.log.Warn("Failed to count comments", zap.Error(err))
	}
	likeCounts := s.likes.BatchCount(ctx, postIDs)
	liked := s.likes.BatchStatus(ctx, viewerID, postIDs)
	saved := s.saves.BatchStatus(ctx, viewerID, postIDs)

	for i, p := range posts {
		if author, ok := authors[p.UserID]; ok {
			p.Author = &author
		}
		out[i] = model.FeedPost{
			Post:         p,
			LikeCount:    likeCounts[p.ID],
			CommentCount: commentCounts[p.ID],
			IsLiked:      liked.Has(p.ID),
			IsSaved:      saved.Has(p.ID),
		}
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return model.DefaultPageSize
	}
	if limit > model.MaxPageSize {
		return model.MaxPageSize
	}
	return limit
}

// Feed cursors are "id:unixmicro", the same shape the post repository uses.
func formatFeedCursor(pos model.PostScore) string {
	return pos.PostID + ":" + strconv.FormatInt(pos.Score, 10)
}

func parseFeedCursor(cursor string) (model.PostScore, error) {
	i := strings.LastIndex(cursor, ":")
	if i <= 0 || i == len(cursor)-1 {
		return model.PostScore{}, model.ErrInvalidCursor
	}
	score, err := strconv.ParseInt(cursor[i+1:], 10, 64)
	if err != nil {
		return model.PostScore{}, model.ErrInvalidCursor
	}
	return model.PostScore{PostID: cursor[:i], Score: score}, nil
}
