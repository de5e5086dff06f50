package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/schoolhub/internal/model"
)

func testRateLimiterConfig(generalBurst, authBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		AuthRate:        0.1,
		AuthBurst:       authBurst,
		CleanupInterval: time.Minute,
	}
}

func requestFrom(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = remoteAddr
	return req
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestNewRateLimiterConfig_PerMinute(t *testing.T) {
	cfg := NewRateLimiterConfig(120, 10)
	if cfg.GeneralRate != 2 {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 || cfg.AuthBurst != 10 {
		t.Errorf("bursts = %d/%d, want 120/10", cfg.GeneralBurst, cfg.AuthBurst)
	}
	if cfg != DefaultRateLimiterConfig() {
		t.Error("DefaultRateLimiterConfig should match NewRateLimiterConfig(120, 10)")
	}
}

func TestAuthMiddleware_Returns429AfterBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 2))
	defer rl.Stop()
	handler := rl.AuthMiddleware()(okHandler)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:1234"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5678"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter != 10 {
		t.Errorf("Retry-After = %q, want 10", w.Header().Get("Retry-After"))
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
}

func TestAuthMiddleware_IndependentPerClientIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 1))
	defer rl.Stop()
	handler := rl.AuthMiddleware()(okHandler)

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom(addr))
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", addr, w.Code)
		}
	}
	if n := rl.AuthLimiterCount(); n != 2 {
		t.Errorf("AuthLimiterCount = %d, want 2", n)
	}
}

func TestGeneralMiddleware_IndependentFromAuthLimit(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(5, 1))
	defer rl.Stop()
	authHandler := rl.AuthMiddleware()(okHandler)
	generalHandler := rl.GeneralMiddleware()(okHandler)

	authHandler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.3:1"))
	w := httptest.NewRecorder()
	authHandler.ServeHTTP(w, requestFrom("10.0.0.3:1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("auth status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	generalHandler.ServeHTTP(w, requestFrom("10.0.0.3:1"))
	if w.Code != http.StatusOK {
		t.Errorf("general status = %d, want 200", w.Code)
	}
}

func withSessionUser(addr string, userID int64) *http.Request {
	req := requestFrom(addr)
	return req.WithContext(ContextWithSession(req.Context(), &model.Session{UserID: userID}))
}

func TestGeneralMiddleware_KeysBySessionUser(t *testing.T) {
	cfg := testRateLimiterConfig(1, 1)
	cfg.KeyBySession = true
	rl := NewRateLimiter(cfg)
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler)

	withSession := func(addr string) *http.Request { return withSessionUser(addr, 9) }

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession("10.0.0.4:1"))
	if w.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", w.Code)
	}

	// 同じユーザーならIPが変わっても同じ枠を消費する
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, withSession("10.0.0.5:1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", w.Code)
	}
}

func TestGeneralMiddleware_WithoutKeyBySession_IgnoresSessionUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSessionUser("10.0.0.6:1", 1))
	if w.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", w.Code)
	}

	// 未署名のセッションではユーザーIDを付け替えても同じIPの枠を消費する
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, withSessionUser("10.0.0.6:1", 2))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", w.Code)
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10, 10))
	defer rl.Stop()

	rl.GeneralMiddleware()(okHandler).ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.6:1"))
	rl.AuthMiddleware()(okHandler).ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.6:1"))

	rl.cleanup(time.Now())
	if rl.GeneralLimiterCount() != 1 || rl.AuthLimiterCount() != 1 {
		t.Fatal("fresh entries should survive cleanup")
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if rl.GeneralLimiterCount() != 0 || rl.AuthLimiterCount() != 0 {
		t.Errorf("stale entries remain: general=%d auth=%d", rl.GeneralLimiterCount(), rl.AuthLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1))
	rl.Stop()
	rl.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.168.1.1:8080", "192.168.1.1"},
		{"[::1]:443", "::1"},
		{"203.0.113.9", "203.0.113.9"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}
