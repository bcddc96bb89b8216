package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/moderation/content", "/moderation/content"},
		{"/health", "/health"},
		{"/ready", "/ready"},
		{"/metrics", "/metrics"},
		{"/questions/abc-123", "/questions/{id}"},
		{"/answers/def-456", "/answers/{id}"},
		{"/unknown/route", "/unknown/route"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPMetrics_RecordsRequests(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/moderation/content", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	count := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/moderation/content", "200"))
	if count != 1 {
		t.Errorf("expected 1 recorded request, got %v", count)
	}
}

func TestHTTPMetrics_ExcludesHealthEndpoints(t *testing.T) {
	metrics := NewMetrics()

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		count := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", path, "200"))
		if count != 0 {
			t.Errorf("expected %s to be excluded from metrics, got count %v", path, count)
		}
	}
}

func TestHTTPMetrics_NormalizesDynamicPaths(t *testing.T) {
	metrics := NewMetrics()

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, path := range []string{"/questions/q-1", "/questions/q-2", "/questions/q-3"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}

	count := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/questions/{id}", "404"))
	if count != 3 {
		t.Errorf("expected 3 requests under /questions/{id}, got %v", count)
	}
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := metrics.Register(reg); err == nil {
		t.Error("expected error registering the same collectors twice")
	}
}
