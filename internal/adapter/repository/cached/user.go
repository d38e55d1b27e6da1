package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-management-api/internal/adapter/cache"
	domain "user-management-api/internal/domain/user"
	"user-management-api/internal/usecase/user"
	"user-management-api/pkg/logger"
)

var _ user.Repository = (*CachedUserRepository)(nil)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
// Only lookups by ID are cached; email checks and listings always hit the DB.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Save writes through to the DB repository and invalidates the cached entry
// before and after the write. A miss that read the old row before the write
// can still repopulate the entry after the second delete; that copy lives at
// most one cache TTL.
func (r *CachedUserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u != nil && u.IsPersisted() {
		r.invalidate(ctx, u.ID)
	}

	saved, err := r.dbRepo.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, nil
	}
	r.invalidate(ctx, saved.ID)
	return saved, nil
}

// FindByID retrieves a user by ID using Cache-Aside pattern.
func (r *CachedUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	log := logger.WithContext(ctx, r.log)

	cachedUser, err := r.cache.Get(ctx, id)
	if err != nil {
		log.Warn("cache get error, falling back to database", zap.String("id", id), zap.Error(err))
	} else if cachedUser != nil {
		return cachedUser, nil
	}

	// Cache miss - use single-flight to prevent stampede
	result, err, shared := r.group.Do(cache.Key(id), func() (any, error) {
		u, err := r.dbRepo.FindByID(ctx, id)
		if err != nil || u == nil {
			return u, err
		}

		if err := r.cache.Set(ctx, u); err != nil {
			log.Warn("failed to cache user", zap.String("id", id), zap.Error(err))
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("user lookup shared with concurrent caller", zap.String("id", id))
	}

	u, _ := result.(*domain.User)
	if u == nil {
		return nil, nil
	}
	// Hand each caller its own copy of a shared result.
	out := *u
	return &out, nil
}

// ExistsByEmail delegates to the DB repository.
func (r *CachedUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.dbRepo.ExistsByEmail(ctx, email)
}

// FindAll delegates to the DB repository.
func (r *CachedUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.FindAll(ctx)
}

// RemoveByID deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) RemoveByID(ctx context.Context, id string) error {
	if err := r.dbRepo.RemoveByID(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, id); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to invalidate cache", zap.String("id", id), zap.Error(err))
	}
}
