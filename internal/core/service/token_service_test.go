package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

func tokenUser() *domain.User {
	return &domain.User{ID: "u42", Email: "t@example.com", Role: domain.RoleDeveloper}
}

func isTokenFailure(err error) bool {
	return errors.Is(err, domain.ErrInvalidSignature) ||
		errors.Is(err, domain.ErrTokenExpired) ||
		errors.Is(err, domain.ErrMalformedToken)
}

// replaceAt swaps the character at i for a different base64url character.
func replaceAt(s string, i int) string {
	repl := byte('A')
	if s[i] == 'A' {
		repl = 'B'
	}
	return s[:i] + string(repl) + s[i+1:]
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	if _, err := NewTokenService(TokenConfig{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestNewTokenService_DefaultLifetime(t *testing.T) {
	svc, err := NewTokenService(TokenConfig{Secret: testSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Lifetime() != DefaultTokenLifetime {
		t.Fatalf("expected %s, got %s", DefaultTokenLifetime, svc.Lifetime())
	}
}

func TestTokenService_IssueVerify(t *testing.T) {
	svc := testTokens(t)

	token, exp, err := svc.Issue(tokenUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "u42" {
		t.Fatalf("expected subject u42, got %s", claims.Subject)
	}
	if claims.TokenID == "" {
		t.Fatalf("expected token id")
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry mismatch: %s vs %s", claims.ExpiresAt, exp)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %s", got)
	}
}

func TestTokenService_TokenCarriesNoRole(t *testing.T) {
	token, _, err := testTokens(t).Issue(tokenUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if _, ok := claims["role"]; ok {
		t.Fatalf("token must not carry a role claim: %v", claims)
	}
}

func TestTokenService_IssueRequiresID(t *testing.T) {
	if _, _, err := testTokens(t).Issue(&domain.User{}); err == nil {
		t.Fatalf("expected error for user without id")
	}
}

func TestTokenService_Expired(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := testTokens(t).WithClock(func() time.Time { return base })

	token, _, err := svc.Issue(tokenUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	later := svc.WithClock(func() time.Time { return base.Add(time.Hour + time.Second) })
	if _, err := later.Verify(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	justBefore := svc.WithClock(func() time.Time { return base.Add(time.Hour - time.Second) })
	if _, err := justBefore.Verify(token); err != nil {
		t.Fatalf("expected token to be valid before expiry, got %v", err)
	}
}

func TestTokenService_TamperedSignature(t *testing.T) {
	svc := testTokens(t)
	token, _, err := svc.Issue(tokenUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	sigStart := strings.LastIndex(token, ".") + 1
	mid := sigStart + (len(token)-sigStart)/2
	if _, err := svc.Verify(replaceAt(token, mid)); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenService_AnySingleCharTamperIsSignatureFailure(t *testing.T) {
	svc := testTokens(t)
	token, _, err := svc.Issue(tokenUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for i := range token {
		if token[i] == '.' {
			continue
		}
		_, err := svc.Verify(replaceAt(token, i))
		if err == nil {
			t.Fatalf("tamper at position %d was accepted", i)
		}
		if !errors.Is(err, domain.ErrInvalidSignature) {
			t.Fatalf("tamper at position %d: expected ErrInvalidSignature, got %v", i, err)
		}
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, _, err := testTokens(t).Issue(tokenUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other, err := NewTokenService(TokenConfig{Secret: "another-secret-another-secret-xx", Issuer: "smartsprint"})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc := testTokens(t)
	claims := jwt.RegisteredClaims{
		Subject:   "u42",
		Issuer:    "smartsprint",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := svc.Verify(none); !isTokenFailure(err) {
		t.Fatalf("expected alg=none to be rejected, got %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign HS512: %v", err)
	}
	if _, err := svc.Verify(hs512); !isTokenFailure(err) {
		t.Fatalf("expected HS512 to be rejected, got %v", err)
	}
}

func TestTokenService_MissingClaims(t *testing.T) {
	svc := testTokens(t)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "smartsprint",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Verify(noSubject); !errors.Is(err, domain.ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken for missing subject, got %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "u42",
		Issuer:  "smartsprint",
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Verify(noExpiry); !isTokenFailure(err) {
		t.Fatalf("expected token without exp to be rejected, got %v", err)
	}
}

func TestTokenService_Garbage(t *testing.T) {
	svc := testTokens(t)
	for _, raw := range []string{"", "abc", "a.b", "a.b.c", ".....", "ab.cd.", "ab.c!.ef", "ab.cd.e+"} {
		if _, err := svc.Verify(raw); !errors.Is(err, domain.ErrMalformedToken) {
			t.Fatalf("Verify(%q): expected ErrMalformedToken, got %v", raw, err)
		}
	}
}
