package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/schoolhub/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLogEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

// TestLoggingMiddleware_LogsRequestFields はリクエストログに必要なフィールドが含まれることを検証する。
func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	handler := NewRequestIDMiddleware()(NewLoggingMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/schools", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLogEntry(t, &buf)
	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "POST" {
		t.Errorf("method = %v, want POST", entry["method"])
	}
	if entry["path"] != "/schools" {
		t.Errorf("path = %v, want /schools", entry["path"])
	}
	if entry["status"] != float64(201) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected 'duration_ms' field in log entry")
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("expected 'request_id' field in log entry")
	}
	if _, ok := entry["user_id"]; ok {
		t.Error("user_id should be absent for unauthenticated requests")
	}
}

// TestLoggingMiddleware_IncludesUserID は認証済みリクエストでユーザーIDがログに含まれることを検証する。
func TestLoggingMiddleware_IncludesUserID(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLoggingMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(ContextWithSession(req.Context(), &model.Session{UserID: 42}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLogEntry(t, &buf)
	if entry["user_id"] != float64(42) {
		t.Errorf("user_id = %v, want 42", entry["user_id"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200 when handler writes nothing", entry["status"])
	}
}

// TestLoggingMiddleware_LevelByStatus はステータスコードに応じてログレベルが変わることを検証する。
func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusForbidden, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		handler := NewLoggingMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		entry := decodeLogEntry(t, &buf)
		if entry["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, entry["level"], tt.level)
		}
	}
}

func TestLoggingMiddleware_LogsRoutePatternAndBytes(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(newTestLogger(&buf)))
	r.Get("/schools/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/schools/7", nil))

	entry := decodeLogEntry(t, &buf)
	if entry["route"] != "/schools/{id}" {
		t.Errorf("route = %v, want /schools/{id}", entry["route"])
	}
	if entry["bytes"] != float64(5) {
		t.Errorf("bytes = %v, want 5", entry["bytes"])
	}
}
