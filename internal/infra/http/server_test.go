package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestHealthReportsDegraded(t *testing.T) {
	srv := NewServer(zerolog.Nop())
	srv.MountHealth("scheduler", map[string]HealthCheck{
		"scheduler": func() (any, bool) { return map[string]string{"state": "stopped"}, false },
	})

	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ожидали 503, получили %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if body["status"] != "degraded" {
		t.Fatalf("ожидали degraded, получили %v", body["status"])
	}
}

func TestRootReportsRunning(t *testing.T) {
	srv := NewServer(zerolog.Nop())
	srv.MountHealth("scheduler", nil)

	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("без проверок /health должен отвечать 200, получили %d", rec.Code)
	}
}
