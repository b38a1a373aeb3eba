// Package redis opens the Redis connection behind the feed cache, the
// OAuth state store and the post event stream.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// Client is the process-wide Redis handle. Every store shares its pool.
type Client struct {
	*redis.Client
}

// Connect opens redisURL (redis://[:password@]host:port[/db]) and verifies
// the server answers. name identifies the process in CLIENT LIST.
func Connect(ctx context.Context, redisURL, name string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ClientName = name
	if opts.DialTimeout == 0 {
		opts.DialTimeout = dialTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	log.Info("Connected to Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &Client{Client: client}, nil
}
