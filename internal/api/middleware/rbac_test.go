package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

func guardContext(id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		SetIdentity(c, *id)
	}
	return c, rec
}

func TestRequireRole_Allows(t *testing.T) {
	c, rec := guardContext(&domain.Identity{UserID: "1", Role: domain.RoleAdmin})

	called := false
	handler := RequireRole(domain.RoleAdmin, domain.RoleProjectManager)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	c, _ := guardContext(&domain.Identity{UserID: "2", Role: domain.RoleDeveloper})

	handler := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequireRole_MissingIdentity(t *testing.T) {
	c, _ := guardContext(nil)

	handler := RequireRole(domain.RoleViewer)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequireRole_Matrix(t *testing.T) {
	for _, held := range domain.Roles() {
		for _, required := range domain.Roles() {
			c, _ := guardContext(&domain.Identity{UserID: "3", Role: held})
			called := false
			err := RequireRole(required)(func(echo.Context) error {
				called = true
				return nil
			})(c)

			if held == required && (err != nil || !called) {
				t.Fatalf("%s should pass guard for %s: %v", held, required, err)
			}
			if held != required && (err == nil || called) {
				t.Fatalf("%s should be rejected by guard for %s", held, required)
			}
		}
	}
}
