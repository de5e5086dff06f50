// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/schoolhub/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "school_hub_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
	sessionContextKey = contextKey("session")
	// requestIDContextKey はリクエストIDを格納するためのキー。
	requestIDContextKey = contextKey("request_id")
)

// SessionDecoder はCookieの値をセッションに復号する。
// auth.Serviceが満たす。
type SessionDecoder interface {
	SessionFromToken(token string) *model.Session
}

// NewSessionMiddleware はCookieからセッションを読み取り、リクエストコンテキストに注入するミドルウェアを返す。
// Cookieがない、または復号できない場合は未認証のまま次へ進む。
// 認証が必要かどうかは各ハンドラーが判断する。
func NewSessionMiddleware(decoder SessionDecoder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess := decoder.SessionFromToken(cookie.Value)
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。未認証の場合はnil。
func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Secure bool
	Domain string
}

// SetSessionCookie はセッショントークンをHttpOnly Cookieとして設定する。
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie はセッションCookieを削除する。
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
