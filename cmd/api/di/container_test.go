package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-management-api/internal/adapter/cache"
	"user-management-api/internal/config"
	"user-management-api/internal/usecase/user"
)

func loadSQLiteConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", config.DriverSQLite)
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "users.db"))

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func TestNewContainer_SQLite(t *testing.T) {
	cfg := loadSQLiteConfig(t)
	ctx := context.Background()

	c, err := NewContainer(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close(ctx)) })

	assert.NotNil(t, c.DB)
	assert.Nil(t, c.Mongo)
	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.RateLimiter)
	require.NoError(t, c.Storage.Ping(ctx))

	age := 30
	created, err := c.UserUC.CreateUser(ctx, user.UserInput{Name: "Ann", Email: "ann@x.io", Age: &age})
	require.NoError(t, err)

	found, ok, err := c.UserUC.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, found)
}

func TestNewContainer_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	cfg := loadSQLiteConfig(t)
	ctx := context.Background()

	c, err := NewContainer(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close(ctx)) })

	require.NotNil(t, c.RedisClient)
	require.NotNil(t, c.RateLimiter)
	assert.True(t, c.RateLimiter.Allow(ctx, "test"))

	age := 40
	created, err := c.UserUC.CreateUser(ctx, user.UserInput{Name: "Bob", Email: "bob@x.io", Age: &age})
	require.NoError(t, err)

	_, ok, err := c.UserUC.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(cache.Key(created.ID)), "reads populate the cache")
}

func TestNewContainer_InProcessRateLimiter(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "1")
	t.Setenv("RATE_LIMIT_BURST", "1")
	cfg := loadSQLiteConfig(t)
	ctx := context.Background()

	c, err := NewContainer(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close(ctx)) })

	assert.Nil(t, c.RedisClient)
	require.NotNil(t, c.RateLimiter)
	assert.True(t, c.RateLimiter.Allow(ctx, "client"))
	assert.False(t, c.RateLimiter.Allow(ctx, "client"))
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := loadSQLiteConfig(t)
	cfg.Storage.Driver = "cassandra"

	_, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported STORAGE_DRIVER")
}

func TestNewContainer_RedisUnreachable(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", "127.0.0.1")
	t.Setenv("REDIS_PORT", "1")
	cfg := loadSQLiteConfig(t)

	_, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize Redis")
}
