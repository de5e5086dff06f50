package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/schoolhub/internal/auth"
	"github.com/hitoshi/schoolhub/internal/config"
	"github.com/hitoshi/schoolhub/internal/database"
	"github.com/hitoshi/schoolhub/internal/handler"
	"github.com/hitoshi/schoolhub/internal/logger"
	"github.com/hitoshi/schoolhub/internal/metrics"
	"github.com/hitoshi/schoolhub/internal/middleware"
	"github.com/hitoshi/schoolhub/internal/repository"
	"github.com/hitoshi/schoolhub/internal/school"
	"github.com/hitoshi/schoolhub/internal/security"
	"github.com/hitoshi/schoolhub/internal/session"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルでログを再構成する
	logger.SetupDefaultWithLevel(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	if cmd == CommandHelp {
		Usage(w)
		return nil
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("env", cfg.Env),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// services はHTTP層に渡すドメインサービスの組。
type services struct {
	auth   *auth.Service
	school *school.Service
}

// buildServices は設定とリポジトリからドメインサービスを組み立てる。
// 秘密値や列挙値の不備はここで起動エラーになる。
func buildServices(cfg *config.Config, users repository.UserRepository, schools repository.SchoolRepository, collector metrics.MetricsCollector) (*services, error) {
	hasher, err := security.NewPasswordHasher(cfg.PasswordScheme, cfg.PasswordSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	codec, err := session.NewCodec(session.Config{
		Format: cfg.SessionFormat,
		Secret: cfg.SessionSecret,
		MaxAge: cfg.SessionMaxAge,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session codec: %w", err)
	}

	policy, err := school.ParseUnownedPolicy(cfg.UnownedSchoolPolicy)
	if err != nil {
		return nil, err
	}

	markup := security.NewMarkupChecker()

	return &services{
		auth: auth.NewService(users, hasher, codec, markup, collector,
			auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
		),
		school: school.NewService(schools, school.NewPolicy(policy), markup, collector),
	}, nil
}

// rateLimiterConfig は設定からレート制限の設定を組み立てる。
// プレーン形式のセッションは改ざんできるため、ユーザーIDではなくIPで制限する。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rl := middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth)
	rl.KeyBySession = cfg.SessionFormat == config.SessionFormatSigned
	return rl
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, 5*time.Second); err != nil {
		return err
	}

	slog.Info("database connection established")

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. リポジトリとドメインサービス
	svc, err := buildServices(cfg,
		repository.NewPostgresUserRepo(db),
		repository.NewPostgresSchoolRepo(db),
		collector,
	)
	if err != nil {
		return err
	}

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		SessionDecoder: svc.auth,
		Cookie: middleware.CookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		},
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFEnabled:       cfg.CSRFEnabled,
		Logger:            slog.Default(),

		Metrics:         collector,
		MetricsGatherer: registry,
		HealthChecker:   db,

		AuthService:   svc.auth,
		SchoolService: svc.school,
	})

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	st, err := database.Migrate(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(st.Version)),
		slog.Bool("dirty", st.Dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
