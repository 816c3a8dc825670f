package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartsprint/smartsprint/internal/core/domain"
	"github.com/smartsprint/smartsprint/internal/core/ports"
	"github.com/smartsprint/smartsprint/internal/pkg/metrics"
)

// UserLoader is the slice of the credential store the auth gate needs.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth verifies the bearer token, reloads the user it names and attaches the
// resulting identity to the request. The role always comes from the store,
// never from the token.
func Auth(verifier ports.TokenVerifier, users UserLoader, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				reject(log, c, "missing_token", nil)
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				reject(log, c, tokenFailureReason(err), err)
				return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
			}

			user, err := users.FindByID(c.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					reject(log, c, "unknown_subject", err)
					return fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
				}
				reject(log, c, "store_error", err)
				return fmt.Errorf("auth gate: load user: %w", err)
			}

			SetIdentity(c, domain.Identity{
				UserID: user.ID,
				Role:   user.Role,
				User:   user.Public(),
			})
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

func reject(log zerolog.Logger, c echo.Context, reason string, err error) {
	metrics.AuthGateRejectionsTotal.WithLabelValues(reason).Inc()

	evt := log.Warn()
	switch reason {
	case "missing_token", "expired":
		evt = log.Debug()
	case "store_error":
		evt = log.Error()
	}
	evt.Err(err).
		Str("reason", reason).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("auth gate rejected request")
}
