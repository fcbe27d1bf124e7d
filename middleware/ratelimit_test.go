package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourusername/lockfence/pkg/lockfence"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testManager(t *testing.T) *lockfence.Manager {
	t.Helper()
	manager, err := lockfence.NewManager(&lockfence.FileConfig{
		Defaults: lockfence.PolicyConfig{Limit: 1, Interval: "1m"},
	})
	if err != nil {
		t.Fatalf("NewManager() unexpected error: %v", err)
	}
	return manager
}

func TestMiddleware_AllowsThenRejects(t *testing.T) {
	rl, err := NewRateLimiter(Config{Manager: testManager(t)})
	if err != nil {
		t.Fatalf("NewRateLimiter() unexpected error: %v", err)
	}
	handler := rl.Middleware(okHandler())

	// First request from this client is admitted.
	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %s, want 1", rec.Header().Get("X-RateLimit-Limit"))
	}

	// Second request from the same client is rejected.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set on rejection")
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("rejection body is not valid JSON: %v", err)
	}
	if body["error"] != "rate_limit_exceeded" {
		t.Errorf("error field = %v, want rate_limit_exceeded", body["error"])
	}
	if ms, ok := body["retryAfterMs"].(float64); !ok || ms <= 0 {
		t.Errorf("retryAfterMs = %v, want a positive number", body["retryAfterMs"])
	}
}

func TestMiddleware_DistinctClientsHaveDistinctBudgets(t *testing.T) {
	rl, err := NewRateLimiter(Config{Manager: testManager(t)})
	if err != nil {
		t.Fatalf("NewRateLimiter() unexpected error: %v", err)
	}
	handler := rl.Middleware(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api", nil)
	first.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client should be exhausted, got %d", rec.Code)
	}

	// A different client is unaffected.
	second := httptest.NewRequest(http.MethodGet, "/api", nil)
	second.RemoteAddr = "10.0.0.2:5000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Errorf("second client status = %d, want 200", rec.Code)
	}
}

func TestMiddleware_XForwardedForIdentifiesClient(t *testing.T) {
	rl, err := NewRateLimiter(Config{Manager: testManager(t)})
	if err != nil {
		t.Fatalf("NewRateLimiter() unexpected error: %v", err)
	}
	handler := rl.Middleware(okHandler())

	// Same proxy, different original clients.
	for _, client := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		req.Header.Set("X-Forwarded-For", client+", 10.0.0.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("client %s status = %d, want 200", client, rec.Code)
		}
	}
}

func TestMiddleware_LocalFilterShedsFloods(t *testing.T) {
	rl, err := NewRateLimiter(Config{
		Manager:    testManager(t),
		LocalRPS:   1,
		LocalBurst: 2,
	})
	if err != nil {
		t.Fatalf("NewRateLimiter() unexpected error: %v", err)
	}
	handler := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	// Burst through the local filter; the distributed budget (limit 1)
	// rejects the second, the local filter sheds the rest.
	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK {
		t.Errorf("first request status = %d, want 200", codes[0])
	}
	for i, code := range codes[1:] {
		if code != http.StatusTooManyRequests {
			t.Errorf("request %d status = %d, want 429", i+2, code)
		}
	}
}

func TestNewRateLimiter_RequiresManager(t *testing.T) {
	if _, err := NewRateLimiter(Config{}); err == nil {
		t.Error("NewRateLimiter() expected error for nil manager, got nil")
	}
}
