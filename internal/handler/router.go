package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/schoolhub/internal/metrics"
	"github.com/hitoshi/schoolhub/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionDecoder    middleware.SessionDecoder
	Cookie            middleware.CookieConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFEnabled       bool
	Logger            *slog.Logger

	// 監視
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer
	HealthChecker   HealthChecker

	AuthService   AuthServiceInterface
	SchoolService SchoolServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → RequestID → Metrics → Recovery → SecurityHeaders → CORS
//	  → Session → Logging → RateLimit(General) → CSRF(任意)
//
// /health と /metrics はセッション以降のチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.Cookie.Secure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Cookie)
	schoolHandler := NewSchoolHandler(deps.SchoolService)
	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.Cookie.Secure,
		CookieDomain: deps.Cookie.Domain,
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionDecoder))
		r.Use(middleware.NewLoggingMiddleware(logger))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}
		if deps.CSRFEnabled {
			r.Use(middleware.NewCSRFMiddleware(csrfConfig))
			r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))
		}

		r.Route("/auth", func(r chi.Router) {
			// 登録・ログインは認証専用のレート制限を追加
			r.Group(func(r chi.Router) {
				if deps.RateLimiter != nil {
					r.Use(deps.RateLimiter.AuthMiddleware())
				}
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/schools", func(r chi.Router) {
			r.Get("/", schoolHandler.List)
			r.Post("/", schoolHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", schoolHandler.Get)
				r.Put("/", schoolHandler.Update)
				r.Delete("/", schoolHandler.Delete)
			})
		})
	})

	return r
}
