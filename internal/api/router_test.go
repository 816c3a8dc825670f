package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartsprint/smartsprint/internal/api/handler"
	"github.com/smartsprint/smartsprint/internal/core/service"
	"github.com/smartsprint/smartsprint/internal/infrastructure/db/sqlite"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Adm1nPassw0rd"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, sqlite.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := sqlite.NewUserRepository(db)
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	tokens, err := service.NewTokenService(service.TokenConfig{Secret: "router-test-secret"})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	log := zerolog.Nop()

	seeded, err := service.EnsureAdminUser(ctx, repo, hasher, service.AdminSeed{Email: adminEmail, Password: adminPassword}, log)
	if err != nil || !seeded {
		t.Fatalf("EnsureAdminUser: seeded=%v err=%v", seeded, err)
	}

	return NewRouter(Deps{
		Log:       log,
		Auth:      service.NewAuthService(repo, hasher, tokens, log),
		Users:     service.NewUserService(repo, hasher, nil, log),
		Tokens:    tokens,
		Store:     repo,
		Readiness: map[string]handler.Checker{"store": repo.Ping},
	})
}

type result struct {
	code int
	body map[string]any
	raw  string
}

func call(t *testing.T, e *echo.Echo, method, path, token, body string) result {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	res := result{code: rec.Code, raw: rec.Body.String()}
	if err := json.Unmarshal(rec.Body.Bytes(), &res.body); err != nil {
		t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
	}
	return res
}

func login(t *testing.T, e *echo.Echo, email, password string) (string, string) {
	t.Helper()
	res := call(t, e, http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if res.code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, res.code, res.raw)
	}
	user, _ := res.body["user"].(map[string]any)
	id, _ := user["id"].(string)
	token, _ := res.body["token"].(string)
	return token, id
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	e := newTestServer(t)

	res := call(t, e, http.MethodPost, "/auth/register", "",
		`{"name":"Dana","email":"dana@example.com","password":"Passw0rd!","role":"developer"}`)
	if res.code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", res.code, res.raw)
	}
	if res.body["token"] == "" || strings.Contains(res.raw, "password") {
		t.Fatalf("unexpected register body: %s", res.raw)
	}

	token, id := login(t, e, "dana@example.com", "Passw0rd!")

	me := call(t, e, http.MethodGet, "/auth/me", token, "")
	if me.code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", me.code, me.raw)
	}
	user, _ := me.body["user"].(map[string]any)
	if user["id"] != id || user["role"] != "developer" {
		t.Fatalf("unexpected me payload: %s", me.raw)
	}
	if strings.Contains(me.raw, "password") {
		t.Fatalf("me leaks password material: %s", me.raw)
	}
}

func TestRouter_RegisterPrivilegedRoleForbidden(t *testing.T) {
	e := newTestServer(t)

	res := call(t, e, http.MethodPost, "/auth/register", "",
		`{"name":"Eve","email":"eve@example.com","password":"Passw0rd!","role":"admin"}`)
	if res.code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", res.code, res.raw)
	}

	res = call(t, e, http.MethodPost, "/auth/register", "",
		`{"name":"Eve","email":"eve@example.com","password":"Passw0rd!","role":"superuser"}`)
	if res.code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d: %s", res.code, res.raw)
	}
}

func TestRouter_DuplicateEmail(t *testing.T) {
	e := newTestServer(t)

	res := call(t, e, http.MethodPost, "/auth/register", "",
		`{"name":"Adm","email":"admin@example.com","password":"Passw0rd!"}`)
	if res.code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.code, res.raw)
	}
}

func TestRouter_LoginFailuresIndistinguishable(t *testing.T) {
	e := newTestServer(t)

	wrong := call(t, e, http.MethodPost, "/auth/login", "", `{"email":"admin@example.com","password":"nope-nope"}`)
	unknown := call(t, e, http.MethodPost, "/auth/login", "", `{"email":"ghost@example.com","password":"nope-nope"}`)

	if wrong.code != http.StatusUnauthorized || unknown.code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrong.code, unknown.code)
	}
	if wrong.raw != unknown.raw {
		t.Fatalf("responses differ: %s vs %s", wrong.raw, unknown.raw)
	}
	if wrong.body["success"] != false || wrong.body["message"] != "Invalid credentials" {
		t.Fatalf("unexpected envelope: %s", wrong.raw)
	}
}

func TestRouter_AuthGate(t *testing.T) {
	e := newTestServer(t)

	res := call(t, e, http.MethodGet, "/auth/me", "", "")
	if res.code != http.StatusUnauthorized || res.body["message"] != "Not authorized, no token" {
		t.Fatalf("expected missing-token 401, got %d: %s", res.code, res.raw)
	}

	res = call(t, e, http.MethodGet, "/auth/me", "not.a.jwt", "")
	if res.code != http.StatusUnauthorized || res.body["message"] != "Not authorized, token failed" {
		t.Fatalf("expected token-failed 401, got %d: %s", res.code, res.raw)
	}
}

func TestRouter_RoleGuards(t *testing.T) {
	e := newTestServer(t)
	adminToken, adminID := login(t, e, adminEmail, adminPassword)

	res := call(t, e, http.MethodPost, "/users", adminToken,
		`{"name":"Dev","email":"dev@example.com","password":"Passw0rd!","role":"developer"}`)
	if res.code != http.StatusCreated {
		t.Fatalf("admin create: expected 201, got %d: %s", res.code, res.raw)
	}
	devToken, devID := login(t, e, "dev@example.com", "Passw0rd!")

	if res := call(t, e, http.MethodGet, "/users", devToken, ""); res.code != http.StatusForbidden {
		t.Fatalf("developer list: expected 403, got %d", res.code)
	}
	if res := call(t, e, http.MethodDelete, "/users/"+adminID, devToken, ""); res.code != http.StatusForbidden {
		t.Fatalf("developer delete: expected 403, got %d", res.code)
	}

	list := call(t, e, http.MethodGet, "/users", adminToken, "")
	if list.code != http.StatusOK || list.body["count"] != float64(2) {
		t.Fatalf("admin list: unexpected %d: %s", list.code, list.raw)
	}

	if res := call(t, e, http.MethodDelete, "/users/"+adminID, adminToken, ""); res.code != http.StatusBadRequest {
		t.Fatalf("admin self-delete: expected 400, got %d", res.code)
	}
	if res := call(t, e, http.MethodDelete, "/users/"+devID, adminToken, ""); res.code != http.StatusOK {
		t.Fatalf("admin delete: expected 200, got %d: %s", res.code, res.raw)
	}

	// The deleted user's token no longer resolves to an account.
	if res := call(t, e, http.MethodGet, "/auth/me", devToken, ""); res.code != http.StatusUnauthorized {
		t.Fatalf("deleted user: expected 401, got %d", res.code)
	}
}

func TestRouter_ChangePasswordAndProfile(t *testing.T) {
	e := newTestServer(t)

	call(t, e, http.MethodPost, "/auth/register", "",
		`{"name":"Vic","email":"vic@example.com","password":"Passw0rd!"}`)
	token, id := login(t, e, "vic@example.com", "Passw0rd!")

	res := call(t, e, http.MethodPut, "/users/"+id, token, `{"bio":"hello","role":"admin"}`)
	if res.code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", res.code, res.raw)
	}
	user, _ := res.body["user"].(map[string]any)
	if user["bio"] != "hello" || user["role"] != "developer" {
		t.Fatalf("self update must not change role: %s", res.raw)
	}

	res = call(t, e, http.MethodPost, "/users/"+id+"/change-password", token,
		`{"current_password":"wrong-one","new_password":"N3wPassw0rd"}`)
	if res.code != http.StatusBadRequest {
		t.Fatalf("wrong current password: expected 400, got %d", res.code)
	}

	res = call(t, e, http.MethodPost, "/users/"+id+"/change-password", token,
		`{"current_password":"Passw0rd!","new_password":"N3wPassw0rd"}`)
	if res.code != http.StatusOK {
		t.Fatalf("change password: expected 200, got %d: %s", res.code, res.raw)
	}
	login(t, e, "vic@example.com", "N3wPassw0rd")
}

func TestRouter_Health(t *testing.T) {
	e := newTestServer(t)

	if res := call(t, e, http.MethodGet, "/health", "", ""); res.code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", res.code)
	}
	res := call(t, e, http.MethodGet, "/health/ready", "", "")
	if res.code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d: %s", res.code, res.raw)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	e := newTestServer(t)

	res := call(t, e, http.MethodGet, "/nope", "", "")
	if res.code != http.StatusNotFound || res.body["success"] != false {
		t.Fatalf("expected 404 envelope, got %d: %s", res.code, res.raw)
	}
}
