package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-management-api/internal/domain/user"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func TestRedisUserCache_SetAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	user := &domain.User{ID: "u-1", Name: "John Doe", Email: "john@example.com", Age: 42}
	require.NoError(t, cache.Set(context.Background(), user))

	raw, err := mr.Get("user:u-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-1","name":"John Doe","email":"john@example.com","age":42}`, raw)

	cached, err := cache.Get(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, *user, *cached)
}

func TestRedisUserCache_SetRejectsUnsavedUser(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	assert.Error(t, cache.Set(context.Background(), nil))
	assert.Error(t, cache.Set(context.Background(), &domain.User{Name: "No ID"}))
}

func TestRedisUserCache_GetMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	cached, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_GetCorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	require.NoError(t, mr.Set("user:bad", "{not json"))

	_, err := cache.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisUserCache_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, &domain.User{ID: id, Name: id, Email: id + "@x.io", Age: 20}))
	}

	require.NoError(t, cache.Delete(ctx, "a", "b"))
	require.NoError(t, cache.Delete(ctx))

	for id, present := range map[string]bool{"a": false, "b": false, "c": true} {
		cached, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, present, cached != nil, id)
	}
}

func TestRedisUserCache_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 2*time.Second, zaptest.NewLogger(t))

	require.NoError(t, cache.Set(context.Background(), &domain.User{ID: "u-1", Name: "John", Email: "john@example.com", Age: 30}))

	mr.FastForward(3 * time.Second)

	cached, err := cache.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))

	mr.Close()

	_, err := cache.Get(context.Background(), "u-1")
	assert.Error(t, err)
}
