package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartsprint/smartsprint/internal/core/domain"
	"github.com/smartsprint/smartsprint/internal/core/ports"
	"github.com/smartsprint/smartsprint/internal/pkg/metrics"
)

// selfServiceRoles are the roles an anonymous caller may register with.
var selfServiceRoles = []domain.Role{domain.RoleDeveloper, domain.RoleViewer}

// AuthService implements registration and login.
type AuthService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	throttle ports.LoginThrottle
	audit    ports.AuditRecorder
	log      zerolog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithLoginThrottle enables failed-login throttling.
func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

// WithAuditRecorder sends auth events to r.
func WithAuditRecorder(r ports.AuditRecorder) AuthOption {
	return func(s *AuthService) {
		if r != nil {
			s.audit = r
		}
	}
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		audit:  nopAudit{},
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user from a self-service request and signs them in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	name, email, err := validateIdentityFields(in.Name, in.Email)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}
	role, err := resolveRole(in.Role)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}
	if !domain.RoleIn(role, selfServiceRoles...) {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, fmt.Errorf("%w: role %q cannot be self-assigned", domain.ErrForbidden, role)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
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
			metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
			return nil, domain.ErrUserExists
		}
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	token, _, err := s.tokens.Issue(created)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, err
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventRegistered,
		UserID:     created.ID,
		Email:      created.Email,
		OccurredAt: now,
	})
	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")

	return &ports.AuthResult{Token: token, User: created}, nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return nil, domain.NewValidationError("please provide email and password")
	}

	if s.throttle != nil {
		blocked, err := s.throttle.Blocked(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		} else if blocked {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "throttled").Inc()
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
			return nil, fmt.Errorf("login: %w", err)
		}
		// Spend the same bcrypt work as a real comparison.
		_, _ = s.hasher.Verify(password, s.timingHash())
		return nil, s.loginFailed(ctx, email, "")
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
	}
	if !ok {
		return nil, s.loginFailed(ctx, email, user.ID)
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, err
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}
	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventLoginSucceeded,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()

	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, userID string) error {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to record login failure")
		}
	}
	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventLoginFailed,
		UserID:     userID,
		Email:      email,
		OccurredAt: s.now().UTC(),
	})
	metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
	return domain.ErrInvalidCredentials
}

func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("smartsprint-login-timing")
		if err != nil {
			s.log.Warn().Err(err).Msg("could not build timing hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

type nopAudit struct{}

func (nopAudit) Record(domain.AuthEvent) {}
