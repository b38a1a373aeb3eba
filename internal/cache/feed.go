package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"zoskagram/internal/model"
)

const (
	// GlobalFeedKey holds the global timeline as a sorted set of post ids
	// scored by created_at (unix micros).
	GlobalFeedKey = "feed:global"

	// FeedCacheCap is the maximum number of posts kept in the cache
	FeedCacheCap = 500

	// FeedCacheTTL is the TTL for the feed cache (7 days)
	FeedCacheTTL = 7 * 24 * time.Hour
)

// FeedCache defines the interface for feed cache operations.
// Using an interface enables testing with mocks.
type FeedCache interface {
	// AddPost adds a post to the feed.
	// Uses pipeline: ZADD + ZREMRANGEBYRANK (maintain cap) + EXPIRE (refresh TTL)
	AddPost(ctx context.Context, postID string, score int64) error

	// RemovePost removes a post from the feed.
	RemovePost(ctx context.Context, postID string) error

	// GetPage returns up to limit entries, newest first. Entries with equal
	// scores are ordered by id descending. With a cursor only entries after
	// it in that order are returned.
	GetPage(ctx context.Context, after *model.PostScore, limit int) ([]model.PostScore, error)

	// Warm bulk-inserts posts using pipelined ZADD + EXPIRE.
	Warm(ctx context.Context, posts []model.PostScore) error

	// Exists reports whether the feed key is present. The service warms
	// the cache when it is not (first start or TTL expired).
	Exists(ctx context.Context) (bool, error)

	// Size returns the number of cached posts.
	Size(ctx context.Context) (int64, error)
}

// RedisFeedCache implements FeedCache using a Redis sorted set.
type RedisFeedCache struct {
	client redis.UniversalClient
	key    string
	log    *zap.Logger
}

// NewFeedCache creates a new FeedCache backed by Redis.
func NewFeedCache(client redis.UniversalClient, log *zap.Logger) FeedCache {
	return &RedisFeedCache{client: client, key: GlobalFeedKey, log: log.Named("feed_cache")}
}

func (c *RedisFeedCache) AddPost(ctx context.Context, postID string, score int64) error {
	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, c.key, redis.Z{Score: float64(score), Member: postID})
	// Rank 0 is the lowest score (oldest); keep the newest FeedCacheCap
	pipe.ZRemRangeByRank(ctx, c.key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, c.key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add post to feed: %w", err)
	}
	c.log.Debug("AddPost", zap.String("post_id", postID), zap.Int64("score", score))
	return nil
}

func (c *RedisFeedCache) RemovePost(ctx context.Context, postID string) error {
	if err := c.client.ZRem(ctx, c.key, postID).Err(); err != nil {
		return fmt.Errorf("remove post from feed: %w", err)
	}
	c.log.Debug("RemovePost", zap.String("post_id", postID))
	return nil
}

func (c *RedisFeedCache) GetPage(ctx context.Context, after *model.PostScore, limit int) ([]model.PostScore, error) {
	var results []redis.Z
	var err error

	if after == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, c.key, 0, int64(limit-1)).Result()
	} else {
		// The bound is inclusive so posts sharing the cursor's score are not
		// lost; the ones already returned are skipped below.
		bound := strconv.FormatInt(after.Score, 10)
		var ties int64
		ties, err = c.client.ZCount(ctx, c.key, bound, bound).Result()
		if err != nil {
			return nil, fmt.Errorf("count feed ties: %w", err)
		}
		results, err = c.client.ZRevRangeByScoreWithScores(ctx, c.key, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   bound,
			Count: int64(limit) + ties,
		}).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, c.key, FeedCacheTTL)

	page := make([]model.PostScore, 0, len(results))
	for _, z := range results {
		id, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected feed member %v", z.Member)
		}
		entry := model.PostScore{PostID: id, Score: int64(z.Score)}
		if after != nil && !entry.OlderThan(*after) {
			continue
		}
		page = append(page, entry)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (c *RedisFeedCache) Warm(ctx context.Context, posts []model.PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{Score: float64(p.Score), Member: p.PostID}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, c.key, members...)
	pipe.ZRemRangeByRank(ctx, c.key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, c.key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}
	c.log.Info("Feed cache warmed", zap.Int("posts", len(posts)))
	return nil
}

func (c *RedisFeedCache) Exists(ctx context.Context) (bool, error) {
	n, err := c.client.Exists(ctx, c.key).Result()
	if err != nil {
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return n > 0, nil
}

func (c *RedisFeedCache) Size(ctx context.Context) (int64, error) {
	size, err := c.client.ZCard(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("get cache size: %w", err)
	}
	return size, nil
}
