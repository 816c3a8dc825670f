package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartsprint/smartsprint/internal/core/domain"
	"github.com/smartsprint/smartsprint/internal/core/ports"
)

// AdminSeed is the account created on first start against an empty store.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdminUser creates the seed admin when the store holds no users.
// It reports whether a user was created. An empty seed email or password
// disables seeding.
func EnsureAdminUser(
	ctx context.Context,
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	seed AdminSeed,
	log zerolog.Logger,
) (bool, error) {
	if strings.TrimSpace(seed.Email) == "" || seed.Password == "" {
		return false, nil
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Admin"
	}

	hash, err := hasher.Hash(seed.Password)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	created, err := repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        strings.TrimSpace(seed.Email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Another instance seeded first.
		if errors.Is(err, domain.ErrUserExists) {
			return false, nil
		}
		return false, fmt.Errorf("seed admin: %w", err)
	}

	log.Warn().Str("user_id", created.ID).Str("email", created.Email).Msg("seeded admin user, change its password")
	return true, nil
}
