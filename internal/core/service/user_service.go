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

// Roles allowed to see every account.
var directoryRoles = []domain.Role{domain.RoleAdmin, domain.RoleProjectManager}

type userService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	audit  ports.AuditRecorder
	log    zerolog.Logger
	now    func() time.Time
}

// NewUserService returns a UserService implementation. audit may be nil.
func NewUserService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) ports.UserService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &userService{
		repo:   repo,
		hasher: hasher,
		audit:  audit,
		log:    log,
		now:    time.Now,
	}
}

func (s *userService) List(ctx context.Context, actor domain.Identity) ([]*domain.User, error) {
	if !domain.RoleIn(actor.Role, directoryRoles...) {
		return nil, domain.ErrForbidden
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns a user. Anyone may read their own record; admins and project
// managers may read any record.
func (s *userService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.User, error) {
	if !actor.Owns(id) && !domain.RoleIn(actor.Role, directoryRoles...) {
		return nil, fmt.Errorf("%w: not authorized to access this user", domain.ErrForbidden)
	}
	return s.repo.FindByID(ctx, id)
}

// Create adds a user on behalf of actor, who must outrank the new role.
func (s *userService) Create(ctx context.Context, actor domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	name, email, err := validateIdentityFields(in.Name, in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role, err := resolveRole(in.Role)
	if err != nil {
		return nil, err
	}
	if !domain.CanCreate(actor.Role, role) {
		return nil, fmt.Errorf("%w: users with role '%s' cannot create users with role '%s'", domain.ErrForbidden, actor.Role, role)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventUserCreated,
		UserID:     created.ID,
		Email:      created.Email,
		ActorID:    actor.UserID,
		OccurredAt: now,
	})
	s.log.Info().
		Str("user_id", created.ID).
		Str("role", string(created.Role)).
		Str("actor_id", actor.UserID).
		Msg("user created")

	return created, nil
}

// Update edits a profile. Users may edit themselves; admins may edit anyone.
// Role changes from non-admins are ignored.
func (s *userService) Update(ctx context.Context, actor domain.Identity, id string, in ports.UpdateUserInput) (*domain.User, error) {
	isAdmin := actor.Role == domain.RoleAdmin
	if !actor.Owns(id) && !isAdmin {
		return nil, fmt.Errorf("%w: not authorized to update this user", domain.ErrForbidden)
	}

	var upd domain.UserUpdate
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name cannot be empty")
		}
		upd.Name = &name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	if in.Role != nil && isAdmin {
		role, ok := domain.ParseRole(*in.Role)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, *in.Role)
		}
		upd.Role = &role
	}
	upd.Bio = in.Bio
	upd.Department = in.Department
	upd.Location = in.Location
	upd.Phone = in.Phone

	if upd.Empty() {
		return s.repo.FindByID(ctx, id)
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventUserUpdated,
		UserID:     updated.ID,
		Email:      updated.Email,
		ActorID:    actor.UserID,
		OccurredAt: s.now().UTC(),
	})
	return updated, nil
}

// ChangePassword replaces the actor's own password after checking the
// current one.
func (s *userService) ChangePassword(ctx context.Context, actor domain.Identity, id, current, next string) error {
	if !actor.Owns(id) {
		return fmt.Errorf("%w: not authorized to change this user's password", domain.ErrForbidden)
	}
	if current == "" || next == "" {
		return domain.NewValidationError("current password and new password are required")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return domain.ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventPasswordChanged,
		UserID:     user.ID,
		Email:      user.Email,
		ActorID:    actor.UserID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// Delete removes a user. Only admins may delete, and never themselves.
func (s *userService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.Owns(user.ID) {
		return domain.ErrCannotDeleteSelf
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventUserDeleted,
		UserID:     user.ID,
		Email:      user.Email,
		ActorID:    actor.UserID,
		OccurredAt: s.now().UTC(),
	})
	s.log.Info().Str("user_id", user.ID).Str("actor_id", actor.UserID).Msg("user deleted")
	return nil
}
