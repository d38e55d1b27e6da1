package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-management-api/cmd/api/infrastructure"
	"user-management-api/internal/adapter/cache"
	"user-management-api/internal/adapter/db/mongodb"
	"user-management-api/internal/adapter/db/sqldb"
	ginhandler "user-management-api/internal/adapter/gin/handler"
	"user-management-api/internal/adapter/grpc/middleware"
	"user-management-api/internal/adapter/repository/cached"
	"user-management-api/internal/config"
	"user-management-api/internal/usecase/user"
	redisclient "user-management-api/pkg/redis"
)

// Storage is the user store as seen by health checks.
type Storage interface {
	user.Repository
	Ping(ctx context.Context) error
}

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	Mongo       *mongo.Client
	RedisClient *redisclient.Client
	Storage     Storage
	UserUC      user.UserUsecase
	RateLimiter *middleware.RateLimiter // nil when rate limiting is disabled
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies. Resources
// opened before a failure are released.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (_ *Container, err error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}
	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
		}
	}()

	if err := c.initStorage(ctx); err != nil {
		return nil, err
	}

	var repo user.Repository = c.Storage
	if cfg.Redis.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb

		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(c.Storage, userCache, l)
	}

	if cfg.RateLimit.Enabled {
		var scripter redis.Scripter
		if c.RedisClient != nil {
			scripter = c.RedisClient.Client
		}
		c.RateLimiter = middleware.NewRateLimiter(
			scripter,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           true,
			},
			l,
		)
	}

	uc := user.New(repo, l)
	c.UserUC = uc
	c.GinHandler = ginhandler.NewUserHandler(uc, l)

	return c, nil
}

// initStorage opens the backend selected by STORAGE_DRIVER and prepares its
// schema or indexes.
func (c *Container) initStorage(ctx context.Context) error {
	cfg, l := c.Config, c.Logger

	switch cfg.Storage.Driver {
	case config.DriverMongo:
		client, err := infrastructure.NewMongoClient(ctx, cfg, l)
		if err != nil {
			return fmt.Errorf("failed to initialize MongoDB: %w", err)
		}
		c.Mongo = client

		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		repo := mongodb.NewUserRepoMongo(coll, l)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to ensure indexes: %w", err)
		}
		c.Storage = repo
	default:
		db, err := infrastructure.NewDatabase(cfg, l)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db

		repo := sqldb.NewUserRepoSQL(db, l)
		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		c.Storage = repo
	}

	return nil
}

// Close closes all resources held by the container
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.Mongo != nil {
		if err := infrastructure.CloseMongo(ctx, c.Mongo); err != nil {
			errs = append(errs, err)
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
