package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/smartsprint/smartsprint/internal/core/domain"
	"github.com/smartsprint/smartsprint/internal/pkg/metrics"
)

// RequireRole allows the request only when the identity attached by Auth holds
// one of allowedRoles. It must run after Auth; a missing identity is rejected
// as forbidden.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				metrics.GuardDecisionsTotal.WithLabelValues("forbidden").Inc()
				return fmt.Errorf("%w: no identity on request", domain.ErrForbidden)
			}
			if _, ok := allowed[id.Role]; !ok {
				metrics.GuardDecisionsTotal.WithLabelValues("forbidden").Inc()
				return fmt.Errorf("%w: user role %s is not authorized to access this route", domain.ErrForbidden, id.Role)
			}
			metrics.GuardDecisionsTotal.WithLabelValues("allowed").Inc()
			return next(c)
		}
	}
}
