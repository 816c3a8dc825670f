package ports

import (
	"context"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

// UserRepository is the credential store. Lookups of absent users return
// domain.ErrUserNotFound; email collisions return domain.ErrUserExists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// AuditRepository persists auth audit events.
type AuditRepository interface {
	SaveEvent(ctx context.Context, event domain.AuthEvent) error
}
