package sqldb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"
)

// UserRepoSQL implements the Repository interface using GORM. It serves both
// PostgreSQL and SQLite; the dialect is chosen when the *gorm.DB is opened.
type UserRepoSQL struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoSQL creates a new instance of UserRepoSQL.
func NewUserRepoSQL(db *gorm.DB, log *zap.Logger) *UserRepoSQL {
	return &UserRepoSQL{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        string    `gorm:"primaryKey;size:36"`                   // UUID assigned on insert
	Name      string    `gorm:"not null;size:255"`                    // User's full name (required)
	Email     string    `gorm:"not null;uniqueIndex:uk_users_email"` // User's unique email address
	Age       int       `gorm:"not null"`                             // Age in years
	CreatedAt time.Time // Insertion time, used for listing order
	UpdatedAt time.Time
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (s UserSchema) toDomain() user.User {
	return user.User{ID: s.ID, Name: s.Name, Email: s.Email, Age: s.Age}
}

// Migrate creates or updates the users table and its unique email index.
func (r *UserRepoSQL) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *UserRepoSQL) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Save inserts u with a fresh UUID when it has no ID yet and updates the
// stored row otherwise. Updating a row that no longer exists returns nil, nil.
func (r *UserRepoSQL) Save(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}
	log := logger.WithContext(ctx, r.log)

	model := UserSchema{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Age:   u.Age,
	}

	var err error
	if !u.IsPersisted() {
		model.ID = uuid.NewString()
		err = r.db.WithContext(ctx).Create(&model).Error
	} else {
		res := r.db.WithContext(ctx).
			Model(&UserSchema{ID: u.ID}).
			Select("Name", "Email", "Age", "UpdatedAt").
			Updates(&model)
		if err = res.Error; err == nil && res.RowsAffected == 0 {
			log.Warn("user vanished before update", zap.String("id", u.ID))
			return nil, nil
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("unique email index rejected write", zap.String("email", u.Email))
			return nil, apperrors.NewDuplicateEmailError(u.Email)
		}
		log.Error("failed to save user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	log.Debug("user saved in db", zap.String("id", model.ID))
	saved := model.toDomain()
	return &saved, nil
}

// FindByID retrieves a user by ID. It returns nil, nil when no row matches.
func (r *UserRepoSQL) FindByID(ctx context.Context, id string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// ExistsByEmail reports whether a row with exactly this email exists.
func (r *UserRepoSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Where("email = ?", email).Count(&count).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to check email in db", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// FindAll retrieves every user ordered by insertion time.
func (r *UserRepoSQL) FindAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}
	return users, nil
}

// RemoveByID removes a user from the database by ID.
func (r *UserRepoSQL) RemoveByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if res.Error != nil {
		logger.WithContext(ctx, r.log).Error("failed to delete user in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}

	logger.WithContext(ctx, r.log).Debug("user deleted in db", zap.String("id", id), zap.Int64("rows", res.RowsAffected))
	return nil
}
