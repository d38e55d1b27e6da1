package user

import (
	"context"

	domain "user-management-api/internal/domain/user"
)

// UserUsecase defines the interface for user business logic operations.
// Lookups by id report absence through the boolean result rather than an error.
type UserUsecase interface {
	CreateUser(ctx context.Context, in UserInput) (domain.User, error)
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, bool, error)
	UpdateUser(ctx context.Context, id string, in UserInput) (domain.User, bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}
