package user

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., MongoDB, PostgreSQL) to be used interchangeably.
type Repository interface {
	Save(ctx context.Context, u *domain.User) (*domain.User, error) // Insert, or replace when ID is set; nil, nil when the ID is gone
	FindByID(ctx context.Context, id string) (*domain.User, error)  // nil, nil when absent
	ExistsByEmail(ctx context.Context, email string) (bool, error)  // Exact match on email
	FindAll(ctx context.Context) ([]domain.User, error)             // Storage-defined order
	RemoveByID(ctx context.Context, id string) error                // Unconditional delete
}

var _ UserUsecase = (*Usecase)(nil)

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo      Repository  // Repository for data access
	log       *zap.Logger // Logger for structured logging
	validator *Validator  // Field rules checked before any storage call
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validator: NewValidator(validator.New())}
}

// CreateUser validates the input, checks email uniqueness and stores a new user.
func (uc *Usecase) CreateUser(ctx context.Context, in UserInput) (domain.User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("creating user", zap.String("email", in.Email))

	if err := uc.validator.Check(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return domain.User{}, err
	}

	if err := uc.ensureEmailAvailable(ctx, log, in.Email); err != nil {
		return domain.User{}, err
	}

	saved, err := uc.repo.Save(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
		Age:   *in.Age,
	})
	if err != nil {
		return domain.User{}, uc.storageError(log, "failed to create user", err)
	}

	log.Info("user created", zap.String("id", saved.ID), zap.String("email", saved.Email))
	return *saved, nil
}

// GetAllUsers returns every stored user. The result is never nil.
func (uc *Usecase) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("fetching all users")

	users, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, uc.storageError(log, "failed to list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}

	log.Info("users retrieved", zap.Int("count", len(users)))
	return users, nil
}

// GetUserByID returns the user stored under id. The boolean is false when no
// such user exists; absence is not an error.
func (uc *Usecase) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("fetching user", zap.String("id", id))

	u, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, false, uc.storageError(log, "failed to get user", err)
	}
	if u == nil {
		log.Warn("user not found", zap.String("id", id))
		return domain.User{}, false, nil
	}

	return *u, true, nil
}

// UpdateUser replaces name, email and age of the user stored under id.
// The uniqueness check only runs when the email actually changes.
func (uc *Usecase) UpdateUser(ctx context.Context, id string, in UserInput) (domain.User, bool, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("updating user", zap.String("id", id), zap.String("email", in.Email))

	if err := uc.validator.Check(in); err != nil {
		log.Warn("validate failed", zap.String("id", id), zap.Error(err))
		return domain.User{}, false, err
	}

	existing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, false, uc.storageError(log, "failed to get user", err)
	}
	if existing == nil {
		log.Warn("attempt to update non-existent user", zap.String("id", id))
		return domain.User{}, false, nil
	}

	oldEmail := existing.Email
	if in.Email != oldEmail {
		if err := uc.ensureEmailAvailable(ctx, log, in.Email); err != nil {
			return domain.User{}, false, err
		}
	}

	existing.Name = in.Name
	existing.Email = in.Email
	existing.Age = *in.Age

	saved, err := uc.repo.Save(ctx, existing)
	if err != nil {
		return domain.User{}, false, uc.storageError(log, "failed to update user", err)
	}
	if saved == nil {
		log.Warn("user deleted during update", zap.String("id", id))
		return domain.User{}, false, nil
	}

	log.Info("user updated",
		zap.String("id", saved.ID),
		zap.String("old_email", oldEmail),
		zap.String("email", saved.Email),
	)
	return *saved, true, nil
}

// DeleteUser removes the user stored under id. It returns false when no such
// user exists.
func (uc *Usecase) DeleteUser(ctx context.Context, id string) (bool, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("deleting user", zap.String("id", id))

	existing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return false, uc.storageError(log, "failed to get user", err)
	}
	if existing == nil {
		log.Warn("attempt to delete non-existent user", zap.String("id", id))
		return false, nil
	}

	if err := uc.repo.RemoveByID(ctx, id); err != nil {
		return false, uc.storageError(log, "failed to delete user", err)
	}

	log.Info("user deleted", zap.String("id", id), zap.String("email", existing.Email))
	return true, nil
}

// ensureEmailAvailable fails with a duplicate email error when email is taken.
func (uc *Usecase) ensureEmailAvailable(ctx context.Context, log *zap.Logger, email string) error {
	exists, err := uc.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return uc.storageError(log, "failed to validate email uniqueness", err)
	}
	if exists {
		log.Warn("email already exists", zap.String("email", email))
		return apperrors.NewDuplicateEmailError(email)
	}
	return nil
}

// storageError logs a repository failure and converts it into an internal
// error. A unique-index violation reported by the repository passes through
// unchanged so that it still reaches the client as a conflict.
func (uc *Usecase) storageError(log *zap.Logger, msg string, err error) error {
	var dup *apperrors.AlreadyExistsError
	if errors.As(err, &dup) {
		log.Warn("email already exists (storage constraint)", zap.Error(err))
		return dup
	}
	log.Error(msg, zap.Error(err))
	return apperrors.NewInternalError(msg, err)
}
