package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/userapi/internal/http/handlers"
)

func TestHealth(t *testing.T) {
	h := handlers.NewHealthHandler(func(ctx context.Context) error {
		return errors.New("health must not ping")
	})

	r := setupRouter(http.MethodGet, "/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != `{"status":"ok"}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name           string
		ping           func(ctx context.Context) error
		wantStatusCode int
	}{
		{name: "no_ping", ping: nil, wantStatusCode: http.StatusOK},
		{name: "db_up", ping: func(ctx context.Context) error { return nil }, wantStatusCode: http.StatusOK},
		{name: "db_down", ping: func(ctx context.Context) error { return errors.New("down") }, wantStatusCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.ping)
			r := setupRouter(http.MethodGet, "/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
