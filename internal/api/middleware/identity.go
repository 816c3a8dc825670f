package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

type identityCtxKey struct{}

// identityKey is the echo.Context key the auth gate stores the identity under.
const identityKey = "identity"

// SetIdentity attaches id to both the echo context and the request context.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
	req := c.Request()
	c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
}

// IdentityFrom returns the identity attached by the auth gate.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext is IdentityFrom for code that only sees the request
// context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, false
	}
	return id, true
}
