package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp 10.0.0.7:6379: connection refused") }

	tests := []struct {
		name   string
		checks map[string]Checker
		code   int
		status string
	}{
		{"all healthy", map[string]Checker{"store": ok, "redis": ok}, http.StatusOK, "ok"},
		{"no checks", map[string]Checker{}, http.StatusOK, "ok"},
		{"redis down", map[string]Checker{"store": ok, "redis": down}, http.StatusServiceUnavailable, "degraded"},
		{"store down", map[string]Checker{"store": down}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			if err := NewReadinessHandler(tt.checks, zerolog.Nop()).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			resp := decode(t, rec)
			if tt.code != http.StatusOK {
				deps, _ := resp["dependencies"].(map[string]any)
				for name, raw := range deps {
					if st, _ := raw.(map[string]any); st["status"] != "ok" && st["status"] != "unhealthy" {
						t.Fatalf("%s: unexpected status %v", name, st["status"])
					}
				}
			}
			if resp["status"] != tt.status {
				t.Fatalf("expected status %q, got %v", tt.status, resp["status"])
			}
			deps, _ := resp["dependencies"].(map[string]any)
			if len(deps) != len(tt.checks) {
				t.Fatalf("expected %d dependencies, got %+v", len(tt.checks), deps)
			}
			if strings.Contains(rec.Body.String(), "10.0.0.7") || strings.Contains(rec.Body.String(), "refused") {
				t.Fatalf("dependency error leaked to client: %s", rec.Body.String())
			}
		})
	}
}
