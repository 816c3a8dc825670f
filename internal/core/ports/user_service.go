package ports

import (
	"context"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

// CreateUserInput carries an administrative user creation request.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateUserInput carries a profile update. Nil fields are untouched.
type UpdateUserInput struct {
	Name       *string
	Email      *string
	Role       *string
	Bio        *string
	Department *string
	Location   *string
	Phone      *string
}

// UserService manages accounts on behalf of an authenticated actor.
type UserService interface {
	List(ctx context.Context, actor domain.Identity) ([]*domain.User, error)
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.User, error)
	Create(ctx context.Context, actor domain.Identity, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, actor domain.Identity, id string, in UpdateUserInput) (*domain.User, error)
	ChangePassword(ctx context.Context, actor domain.Identity, id, current, next string) error
	Delete(ctx context.Context, actor domain.Identity, id string) error
}
