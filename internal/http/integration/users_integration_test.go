package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/db"
	apphttp "github.com/geocoder89/storefront/internal/http"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/repo/memory"
	"github.com/geocoder89/storefront/internal/repo/postgres"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/geocoder89/storefront/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		ServiceName:        "storefront-test",
		StoreDriver:        config.StoreDriverMemory,
		CacheTTL:           time.Minute,
		BcryptCost:         bcrypt.MinCost,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:       1 << 20,
		AuthRateLimit:      1000,
		AuthRateWindow:     time.Minute,
	}
}

func newRouter(t *testing.T, store service.UserStore) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := testConfig()

	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	prom := observability.NewProm(prometheus.NewRegistry())

	users := service.NewUsersService(store, hasher,
		service.WithCache(cache.New(cfg.CacheTTL)),
		service.WithProm(prom),
		service.WithLogger(logger),
	)

	return apphttp.NewRouter(apphttp.Deps{Log: logger, Cfg: cfg, Users: users, Prom: prom})
}

func doRequest(router http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func mustReadJSON(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
	return out
}

// register, duplicate, login, wrong password, fetch by id
func runAccountScenario(t *testing.T, router http.Handler) {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/users/register", `{"name":"A","email":"a@b.com","password":"pw1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}
	if strings.Contains(strings.ToLower(w.Body.String()), "password") || strings.Contains(w.Body.String(), "pw1") {
		t.Fatalf("register response leaked password material: %s", w.Body.String())
	}

	created := mustReadJSON(t, w)
	if !created.Success || created.Data["email"] != "a@b.com" || created.Data["role"] != "user" {
		t.Fatalf("unexpected register body: %s", w.Body.String())
	}
	id, _ := created.Data["id"].(string)

	w = doRequest(router, http.MethodPost, "/users/register", `{"name":"A2","email":"A@B.com","password":"other"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register got %d, want 400", w.Code)
	}
	if dup := mustReadJSON(t, w); dup.Success || dup.Message != "User already exists." {
		t.Fatalf("unexpected duplicate body: %s", w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/users/login", `{"email":"a@b.com","password":"pw1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login got %d, want 200, body=%s", w.Code, w.Body.String())
	}
	if login := mustReadJSON(t, w); login.Data["id"] != id {
		t.Fatalf("login returned a different user: %s", w.Body.String())
	}

	wrong := doRequest(router, http.MethodPost, "/users/login", `{"email":"a@b.com","password":"wrong"}`)
	unknown := doRequest(router, http.MethodPost, "/users/login", `{"email":"ghost@b.com","password":"wrong"}`)

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("login failures got %d and %d, want 401", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("login failures are distinguishable:\n%s\n%s", wrong.Body.String(), unknown.Body.String())
	}
	if e := mustReadJSON(t, wrong); e.Message != "Invalid credentials." {
		t.Fatalf("unexpected login failure message %q", e.Message)
	}

	w = doRequest(router, http.MethodGet, "/users/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get got %d, want 200", w.Code)
	}
	if got := mustReadJSON(t, w); got.Data["email"] != "a@b.com" {
		t.Fatalf("unexpected get body: %s", w.Body.String())
	}

	for _, missing := range []string{"/users/00000000-0000-0000-0000-000000000000", "/users/not-a-uuid"} {
		if w := doRequest(router, http.MethodGet, missing, ""); w.Code != http.StatusNotFound {
			t.Fatalf("GET %s got %d, want 404", missing, w.Code)
		}
	}
}

func TestAccountsIntegration_MemoryStore(t *testing.T) {
	runAccountScenario(t, newRouter(t, memory.NewUsersRepo()))
}

func TestAccountsIntegration_EmailNormalization(t *testing.T) {
	router := newRouter(t, memory.NewUsersRepo())

	w := doRequest(router, http.MethodPost, "/api/users/register", `{"name":"N","email":"User@Example.com","password":"pw"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register got %d body=%s", w.Code, w.Body.String())
	}
	registered := mustReadJSON(t, w)

	w = doRequest(router, http.MethodPost, "/api/users/login", `{"email":"user@example.com","password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login got %d body=%s", w.Code, w.Body.String())
	}

	if got := mustReadJSON(t, w); got.Data["id"] != registered.Data["id"] {
		t.Fatalf("login resolved to a different record")
	}
}

func TestAccountsIntegration_PasswordOverByteLimit(t *testing.T) {
	repo := memory.NewUsersRepo()
	router := newRouter(t, repo)

	// 72 characters, 144 bytes
	body := `{"name":"E","email":"e@b.com","password":"` + strings.Repeat("é", 72) + `"}`

	w := doRequest(router, http.MethodPost, "/users/register", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
	}
	if got := mustReadJSON(t, w); got.Message != "Invalid request body." {
		t.Fatalf("got message %q, want validation failure", got.Message)
	}
	if repo.Count() != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestAccountsIntegration_ConcurrentRegistration(t *testing.T) {
	repo := memory.NewUsersRepo()
	router := newRouter(t, repo)

	const attempts = 10
	codes := make([]int, attempts)

	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			codes[i] = doRequest(router, http.MethodPost, "/users/register", `{"name":"C","email":"race@b.com","password":"pw"}`).Code
			return nil
		})
	}
	_ = g.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}

	if created != 1 || repo.Count() != 1 {
		t.Fatalf("created=%d stored=%d, want exactly one", created, repo.Count())
	}
}

func TestAccountsIntegration_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	if err := db.MigrateUp(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	reset := func() {
		if _, err := pool.Exec(context.Background(), `TRUNCATE users`); err != nil {
			t.Fatalf("failed to truncate users: %v", err)
		}
	}
	reset()
	defer reset()

	router := newRouter(t, postgres.NewUsersRepo(pool, nil))
	runAccountScenario(t, router)
}
