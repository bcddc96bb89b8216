package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRateLimitConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RateLimitConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute},
			wantErr: false,
		},
		{
			name:    "zero requests",
			config:  RateLimitConfig{RequestsPerWindow: 0, WindowDuration: time.Minute},
			wantErr: true,
		},
		{
			name:    "negative requests",
			config:  RateLimitConfig{RequestsPerWindow: -1, WindowDuration: time.Minute},
			wantErr: true,
		},
		{
			name:    "zero window",
			config:  RateLimitConfig{RequestsPerWindow: 10, WindowDuration: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInMemoryRateLimitStore_Allow(t *testing.T) {
	tests := []struct {
		name           string
		requestCount   int
		limit          int
		windowDuration time.Duration
		wantAllowed    []bool
	}{
		{
			name:           "allows requests under limit",
			requestCount:   3,
			limit:          5,
			windowDuration: time.Minute,
			wantAllowed:    []bool{true, true, true},
		},
		{
			name:           "blocks requests at limit",
			requestCount:   6,
			limit:          5,
			windowDuration: time.Minute,
			wantAllowed:    []bool{true, true, true, true, true, false},
		},
		{
			name:           "single request limit",
			requestCount:   3,
			limit:          1,
			windowDuration: time.Minute,
			wantAllowed:    []bool{true, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemoryRateLimitStore()
			config := RateLimitConfig{
				RequestsPerWindow: tt.limit,
				WindowDuration:    tt.windowDuration,
			}
			ctx := context.Background()

			for i := 0; i < tt.requestCount; i++ {
				allowed, _ := store.Allow(ctx, "test-key", config)
				if allowed != tt.wantAllowed[i] {
					t.Errorf("request %d: got allowed=%v, want %v", i+1, allowed, tt.wantAllowed[i])
				}
			}
		})
	}
}

func TestInMemoryRateLimitStore_RetryAfter(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    10 * time.Second,
	}
	ctx := context.Background()

	allowed, retryAfter := store.Allow(ctx, "test-key", config)
	if !allowed {
		t.Error("first request should be allowed")
	}
	if retryAfter != 0 {
		t.Errorf("first request retryAfter should be 0, got %d", retryAfter)
	}

	allowed, retryAfter = store.Allow(ctx, "test-key", config)
	if allowed {
		t.Error("second request should be blocked")
	}
	if retryAfter <= 0 || retryAfter > 10 {
		t.Errorf("retryAfter should be between 1 and 10, got %d", retryAfter)
	}
}

func TestInMemoryRateLimitStore_DifferentKeys(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}
	ctx := context.Background()

	allowed1, _ := store.Allow(ctx, "key-1", config)
	allowed2, _ := store.Allow(ctx, "key-2", config)
	if !allowed1 || !allowed2 {
		t.Error("both keys should be allowed their first request")
	}

	blocked1, _ := store.Allow(ctx, "key-1", config)
	blocked2, _ := store.Allow(ctx, "key-2", config)
	if blocked1 || blocked2 {
		t.Error("both keys should be blocked after reaching limit")
	}
}

func TestInMemoryRateLimitStore_WindowExpiry(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    50 * time.Millisecond,
	}
	ctx := context.Background()

	if allowed, _ := store.Allow(ctx, "test-key", config); !allowed {
		t.Error("first request should be allowed")
	}
	if allowed, _ := store.Allow(ctx, "test-key", config); allowed {
		t.Error("second request should be blocked")
	}

	time.Sleep(60 * time.Millisecond)

	if allowed, _ := store.Allow(ctx, "test-key", config); !allowed {
		t.Error("request after window expiry should be allowed")
	}
}

func TestInMemoryRateLimitStore_Cleanup(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    10 * time.Millisecond,
	}
	ctx := context.Background()

	store.Allow(ctx, "expired-key", config)
	time.Sleep(20 * time.Millisecond)
	store.Allow(ctx, "live-key", RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	})

	store.Cleanup()

	store.mu.RLock()
	defer store.mu.RUnlock()
	if _, exists := store.buckets["expired-key"]; exists {
		t.Error("expired bucket should be removed by Cleanup")
	}
	if _, exists := store.buckets["live-key"]; !exists {
		t.Error("live bucket should survive Cleanup")
	}
}

func TestInMemoryRateLimitStore_Concurrent(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{
		RequestsPerWindow: 50,
		WindowDuration:    time.Minute,
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	allowedCount := make(chan bool, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _ := store.Allow(ctx, "shared-key", config)
			allowedCount <- allowed
		}()
	}
	wg.Wait()
	close(allowedCount)

	allowed := 0
	for ok := range allowedCount {
		if ok {
			allowed++
		}
	}
	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed requests, got %d", allowed)
	}
}

func TestIPKeyFunc(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.0.2.1:12345",
			want:       "192.0.2.1",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for chain uses first",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.3"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			want:       "198.51.100.4",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
	}

	keyFunc := IPKeyFunc()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := keyFunc(req); got != tt.want {
				t.Errorf("IPKeyFunc() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserKeyFunc(t *testing.T) {
	keyFunc := UserKeyFunc()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:12345"

	if got := keyFunc(req); got != "ip:192.0.2.1" {
		t.Errorf("unauthenticated key = %q, want ip:192.0.2.1", got)
	}

	req = req.WithContext(SetUserID(req.Context(), "mod-42"))
	if got := keyFunc(req); got != "user:mod-42" {
		t.Errorf("authenticated key = %q, want user:mod-42", got)
	}
}

func TestRateLimiter_BlocksWithHeaders(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{
		RequestsPerWindow: 2,
		WindowDuration:    time.Minute,
	}

	handler := RateLimiter(store, config, IPKeyFunc())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/moderation/content", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/moderation/content", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	retryAfter, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	if err != nil || retryAfter <= 0 {
		t.Errorf("expected positive Retry-After header, got %q", rr.Header().Get("Retry-After"))
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("expected X-RateLimit-Reset header")
	}
}

func TestRateLimiterWithMetrics_Counters(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}
	metrics := NewMetrics()

	handler := RateLimiterWithMetrics(store, config, IPKeyFunc(), metrics, "/moderation/content")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/moderation/content", nil)
		req.RemoteAddr = "192.0.2.9:1000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}

	observed := testutil.ToFloat64(metrics.rateLimitRequests.WithLabelValues("/moderation/content", "ip"))
	if observed != 3 {
		t.Errorf("observed requests = %v, want 3", observed)
	}
	blocked := testutil.ToFloat64(metrics.rateLimitBlocked.WithLabelValues("/moderation/content", "ip"))
	if blocked != 2 {
		t.Errorf("blocked requests = %v, want 2", blocked)
	}
}

func TestRateLimitKeyType(t *testing.T) {
	if got := rateLimitKeyType("user:mod-123"); got != "user" {
		t.Errorf("rateLimitKeyType(user:mod-123) = %q, want user", got)
	}
	if got := rateLimitKeyType("192.0.2.1"); got != "ip" {
		t.Errorf("rateLimitKeyType(192.0.2.1) = %q, want ip", got)
	}
	if got := rateLimitKeyType("ip:192.0.2.1"); got != "ip" {
		t.Errorf("rateLimitKeyType(ip:192.0.2.1) = %q, want ip", got)
	}
}
