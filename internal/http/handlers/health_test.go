package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/storefront/internal/http/handlers"
)

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	tests := []struct {
		name     string
		checks   map[string]handlers.Check
		wantCode int
		wantBody string
	}{
		{"no_checks", nil, http.StatusOK, `"ready"`},
		{"all_up", map[string]handlers.Check{"postgres": ok, "redis": ok}, http.StatusOK, `"ready"`},
		{"redis_down", map[string]handlers.Check{"postgres": ok, "redis": down}, http.StatusServiceUnavailable, `"redis":"unavailable"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks)
			r := setupRouter(http.MethodGet, "/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("got %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Fatalf("body %s does not contain %s", w.Body.String(), tt.wantBody)
			}
			// the cause stays server side
			if strings.Contains(w.Body.String(), "refused") {
				t.Fatalf("readiness leaked check error: %s", w.Body.String())
			}
		})
	}

	h := handlers.NewHealthHandler(map[string]handlers.Check{"postgres": down})
	r := setupRouter(http.MethodGet, "/healthz", h.Healthz)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("liveness must not depend on checks, got %d", w.Code)
	}
}
