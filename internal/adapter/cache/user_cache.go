package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-management-api/internal/domain/user"
	"user-management-api/pkg/logger"
)

// KeyPrefix is prepended to the user ID to form the cache key.
const KeyPrefix = "user:"

// UserCache defines the interface for user caching operations.
type UserCache interface {
	// Get retrieves a user from cache by ID.
	// Returns nil if user is not found in cache.
	Get(ctx context.Context, id string) (*domain.User, error)

	// Set stores a user in cache with the configured TTL.
	Set(ctx context.Context, user *domain.User) error

	// Delete removes users from cache by ID.
	Delete(ctx context.Context, ids ...string) error
}

// cachedUser is the JSON shape stored in Redis.
type cachedUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("cache"),
	}
}

// Key returns the Redis key for a user ID.
func Key(id string) string {
	return KeyPrefix + id
}

// Get retrieves a user from Redis cache.
func (c *RedisUserCache) Get(ctx context.Context, id string) (*domain.User, error) {
	log := logger.WithContext(ctx, c.log)

	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		log.Debug("cache miss", zap.String("user_id", id))
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get from cache", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}

	var cu cachedUser
	if err := json.Unmarshal(data, &cu); err != nil {
		log.Error("failed to unmarshal cached user", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}

	log.Debug("cache hit", zap.String("user_id", id))
	return &domain.User{ID: cu.ID, Name: cu.Name, Email: cu.Email, Age: cu.Age}, nil
}

// Set stores a user in Redis cache with TTL.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	if user == nil || !user.IsPersisted() {
		return errors.New("cannot cache a user without id")
	}
	log := logger.WithContext(ctx, c.log)

	data, err := json.Marshal(cachedUser{ID: user.ID, Name: user.Name, Email: user.Email, Age: user.Age})
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, Key(user.ID), data, c.ttl).Err(); err != nil {
		log.Error("failed to set cache", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}

	log.Debug("cached user", zap.String("user_id", user.ID), zap.Duration("ttl", c.ttl))
	return nil
}

// Delete removes users from Redis cache.
func (c *RedisUserCache) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.WithContext(ctx, c.log).Error("failed to delete from cache", zap.Strings("user_ids", ids), zap.Error(err))
		return err
	}
	return nil
}
