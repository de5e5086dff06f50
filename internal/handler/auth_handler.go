// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/schoolhub/internal/auth"
	"github.com/hitoshi/schoolhub/internal/middleware"
	"github.com/hitoshi/schoolhub/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, *auth.IssuedSession, error)
	Login(ctx context.Context, in auth.LoginInput) (*model.User, *auth.IssuedSession, error)
	CurrentUser(ctx context.Context, token string) *model.User
}

// AuthHandler は登録・ログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	cookie  middleware.CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, cookie middleware.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
	}
}

// userSummary は登録・ログイン応答のユーザー情報。
type userSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// userProfile は /auth/me 応答のユーザー情報。
type userProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
}

type userEnvelope struct {
	User any `json:"user"`
}

// Register はユーザーを登録し、セッションCookieを設定する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, issued, err := h.service.Register(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, h.cookie, issued.Token, issued.MaxAge)
	middleware.WriteJSON(w, http.StatusCreated, userEnvelope{User: toUserSummary(user)})
}

// Login は認証情報を検証し、セッションCookieを設定する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, issued, err := h.service.Login(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, h.cookie, issued.Token, issued.MaxAge)
	middleware.WriteJSON(w, http.StatusOK, userEnvelope{User: toUserSummary(user)})
}

// Logout はセッションCookieを削除する。サーバー側に状態はない。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, h.cookie)
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me は現在のログインユーザー情報を返す。未認証の場合は {"user": null}。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	var user *model.User
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		user = h.service.CurrentUser(r.Context(), cookie.Value)
	}

	if user == nil {
		middleware.WriteJSON(w, http.StatusOK, userEnvelope{User: nil})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, userEnvelope{User: userProfile{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Phone:       user.Phone,
		CountryCode: user.CountryCode,
	}})
}

func toUserSummary(u *model.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
