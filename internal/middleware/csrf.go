package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/hitoshi/schoolhub/internal/model"
)

const (
	// csrfCookieName はCSRFトークンのCookie名。フロントエンドが読むためHttpOnlyにしない。
	csrfCookieName = "school_hub_csrf"
	csrfHeaderName = "X-CSRF-Token"
	csrfCookieTTL  = 24 * 60 * 60 // 秒
	csrfTokenBytes = 32
)

const csrfTokenContextKey contextKey = "csrf_token"

// CSRFConfig はCSRFトークンCookieの属性。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
}

// NewCSRFMiddleware はdouble-submit cookie方式のCSRF対策ミドルウェアを返す。
// 安全なメソッドは検証せず、トークンCookieがなければ発行する。
// それ以外のメソッドはCookieとX-CSRF-Tokenヘッダーの一致を要求する。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				if token, ok := issueCSRFToken(w, r, config); ok {
					r = r.WithContext(context.WithValue(r.Context(), csrfTokenContextKey, token))
				}
				next.ServeHTTP(w, r)
				return
			}

			if reason := verifyCSRF(r); reason != "" {
				slog.Warn("CSRF validation failed",
					slog.String("reason", reason),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				writeCSRFError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewCSRFTokenHandler は GET /api/csrf-token のハンドラーを返す。
// ミドルウェアが同じリクエストで発行したトークンがあればそれを返す。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := r.Context().Value(csrfTokenContextKey).(string)
		if token == "" {
			var ok bool
			if token, ok = issueCSRFToken(w, r, config); !ok {
				WriteInternalServerError(w)
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"token": token})
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// verifyCSRF は検証失敗の理由を返す。成功時は空文字列。
func verifyCSRF(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return "missing cookie token"
	}
	header := r.Header.Get(csrfHeaderName)
	if header == "" {
		return "missing header token"
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return "token mismatch"
	}
	return ""
}

// issueCSRFToken は既存のトークンCookieを返す。なければ生成してCookieに設定する。
func issueCSRFToken(w http.ResponseWriter, r *http.Request, config CSRFConfig) (string, bool) {
	if c, err := r.Cookie(csrfCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
		return "", false
	}
	token := hex.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   csrfCookieTTL,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, true
}

func writeCSRFError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
		Code:     model.ErrCodeCSRF,
		Message:  "CSRF token validation failed",
		Category: model.CategoryAuthorization,
		Action:   "Reload the page and try again.",
	})
}
