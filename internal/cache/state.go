package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const oauthStatePrefix = "oauth:state:"

// ErrStateNotFound is returned when a state was never issued, already used
// or has expired.
var ErrStateNotFound = errors.New("oauth state not found")

// StateStore keeps single-use OAuth state values.
type StateStore interface {
	Save(ctx context.Context, state, provider string, ttl time.Duration) error
	// Consume returns the provider the state was issued for and deletes it.
	Consume(ctx context.Context, state string) (string, error)
}

type RedisStateStore struct {
	client redis.UniversalClient
}

func NewStateStore(client redis.UniversalClient) StateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, state, provider string, ttl time.Duration) error {
	if err := s.client.Set(ctx, oauthStatePrefix+state, provider, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Consume uses GETDEL so a state can be redeemed only once even when two
// callbacks race.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, error) {
	provider, err := s.client.GetDel(ctx, oauthStatePrefix+state).Result()
	if err == redis.Nil {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	return provider, nil
}
