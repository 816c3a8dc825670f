package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

// DefaultTokenLifetime applies when TokenConfig.Lifetime is unset.
const DefaultTokenLifetime = 24 * time.Hour

// TokenConfig is the immutable signing configuration, loaded once at startup.
type TokenConfig struct {
	Secret   string
	Lifetime time.Duration
	Issuer   string
}

// TokenService issues and verifies HS256 access tokens. Tokens carry only
// the subject user id; roles are always reloaded from the store.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
	now      func() time.Time
	parser   *jwt.Parser
}

// NewTokenService validates cfg and returns a ready TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token service: signing secret is required")
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultTokenLifetime
	}
	s := &TokenService{
		secret:   []byte(cfg.Secret),
		lifetime: cfg.Lifetime,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}
	s.parser = s.newParser()
	return s, nil
}

// WithClock replaces the time source. Used by tests to simulate expiry.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *s
	clone.now = now
	clone.parser = clone.newParser()
	return &clone
}

func (s *TokenService) newParser() *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	return jwt.NewParser(opts...)
}

// Lifetime reports how long issued tokens stay valid.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue signs a token for user.
func (s *TokenService) Issue(user *domain.User) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, errors.New("issue token: user id is required")
	}

	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and expiry of raw and decodes it. Failures
// wrap domain.ErrTokenExpired, domain.ErrInvalidSignature or
// domain.ErrMalformedToken. The MAC is checked over the raw header and
// payload before either is decoded, so any altered character is reported as
// a signature failure.
func (s *TokenService) Verify(raw string) (*domain.TokenClaims, error) {
	if err := s.checkSignature(raw); err != nil {
		return nil, err
	}

	claims := &jwt.RegisteredClaims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrMalformedToken)
	}

	out := &domain.TokenClaims{
		Subject: claims.Subject,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// checkSignature rejects tokens that are not three base64url segments as
// malformed, and tokens whose HS256 MAC does not match as invalid.
func (s *TokenService) checkSignature(raw string) error {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return fmt.Errorf("%w: token has %d segments", domain.ErrMalformedToken, len(segments))
	}
	for i, seg := range segments {
		if !isBase64URLSegment(seg) {
			return fmt.Errorf("%w: segment %d is not base64url", domain.ErrMalformedToken, i)
		}
	}

	sig, err := s.parser.DecodeSegment(segments[2])
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	signingString := segments[0] + "." + segments[1]
	if err := jwt.SigningMethodHS256.Verify(signingString, sig, s.secret); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return nil
}

// isBase64URLSegment reports whether seg could be unpadded base64url: a
// non-empty run of alphabet characters whose length is not 1 mod 4.
func isBase64URLSegment(seg string) bool {
	if seg == "" || len(seg)%4 == 1 {
		return false
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}
}
