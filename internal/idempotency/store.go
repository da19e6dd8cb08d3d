package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/teemow/donna/internal/meeting"
)

// DefaultTTL is how long a booking result is replayed for its key.
const DefaultTTL = 24 * time.Hour

// MaxKeyLength bounds client-supplied keys.
const MaxKeyLength = 255

// Backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store remembers booking results by idempotency key.
type Store interface {
	// Get returns the result stored for key. ok is false when there is none
	// or it has expired.
	Get(ctx context.Context, key string) (result meeting.Result, ok bool, err error)
	Set(ctx context.Context, key string, result meeting.Result) error
	Close() error
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Config selects and configures a backend.
type Config struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// Open creates the configured store. The redis backend is pinged before it is
// returned.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.TTL), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}

// ValidateKey checks a client-supplied key.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) != key || key == "" {
		return &meeting.InputError{Reason: "idempotency key must be non-empty without surrounding spaces"}
	}
	if len(key) > MaxKeyLength {
		return &meeting.InputError{Reason: fmt.Sprintf("idempotency key longer than %d bytes", MaxKeyLength)}
	}
	return nil
}

// hashKey maps a client key to a fixed-size storage key.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
