package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) HealthCheck(ctx context.Context) error {
	return s.err
}

func TestHealth(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Checks["runtime"] != "ok" {
		t.Errorf("checks[runtime] = %q, want ok", resp.Checks["runtime"])
	}
	if resp.Timestamp == "" {
		t.Error("timestamp is empty")
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{})

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		db         HealthChecker
		redis      HealthChecker
		wantStatus int
		wantBody   string
		wantChecks map[string]string
	}{
		{
			name:       "no checkers wired",
			wantStatus: http.StatusOK,
			wantBody:   "ready",
			wantChecks: map[string]string{"database": "ok"},
		},
		{
			name:       "all dependencies healthy",
			db:         &stubChecker{},
			redis:      &stubChecker{},
			wantStatus: http.StatusOK,
			wantBody:   "ready",
			wantChecks: map[string]string{"database": "ok", "redis": "ok"},
		},
		{
			name:       "database down",
			db:         &stubChecker{err: errors.New("connection refused")},
			redis:      &stubChecker{},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "not_ready",
			wantChecks: map[string]string{"database": "error", "redis": "ok"},
		},
		{
			name:       "redis down degrades but stays ready",
			db:         &stubChecker{},
			redis:      &stubChecker{err: errors.New("connection refused")},
			wantStatus: http.StatusOK,
			wantBody:   "ready",
			wantChecks: map[string]string{"database": "ok", "redis": "degraded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandlers(HealthHandlersConfig{
				DBChecker:    tt.db,
				RedisChecker: tt.redis,
			})

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()
			h.Ready(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantBody)
			}
			for check, want := range tt.wantChecks {
				if got := resp.Checks[check]; got != want {
					t.Errorf("checks[%s] = %q, want %q", check, got, want)
				}
			}
		})
	}
}
