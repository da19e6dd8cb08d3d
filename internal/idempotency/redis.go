package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/teemow/donna/internal/meeting"
)

const redisKeyPrefix = "donna:idem:"

// RedisStore shares results between replicas through redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. The store owns the client and closes it.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (meeting.Result, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+hashKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return meeting.Result{}, false, nil
	}
	if err != nil {
		return meeting.Result{}, false, fmt.Errorf("failed to read idempotency record: %w", err)
	}

	var result meeting.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return meeting.Result{}, false, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	return result, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, result meeting.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+hashKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write idempotency record: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
