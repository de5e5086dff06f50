package middleware

import (
	"net/http"
	"strings"
)

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsAllowHeaders = strings.Join([]string{"Content-Type", csrfHeaderName, RequestIDHeader}, ", ")
)

// NewCORSMiddleware はCORSミドルウェアを返す。
// allowedOriginsはカンマ区切りで複数指定できる。Cookieを送るためワイルドカードは使わず、
// 一致したOriginだけをAccess-Control-Allow-Originに返す。
// Originヘッダーのないリクエスト（同一オリジンやcurl）には先頭のオリジンを返す。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	origins := parseOrigins(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			if origin, ok := matchOrigin(origins, r.Header.Get("Origin")); ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func matchOrigin(origins []string, origin string) (string, bool) {
	if len(origins) == 0 {
		return "", false
	}
	if origin == "" {
		return origins[0], true
	}
	for _, o := range origins {
		if strings.EqualFold(o, origin) {
			return origin, true
		}
	}
	return "", false
}
