package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// セッショントークンの形式。
const (
	SessionFormatSigned = "signed"
	SessionFormatPlain  = "plain"
)

// パスワードダイジェストの方式。
const (
	PasswordSchemeArgon2id = "argon2id"
	PasswordSchemeSHA256   = "sha256"
)

// 所有者なし学校の扱い。
const (
	UnownedPolicyEditable  = "editable"
	UnownedPolicyProtected = "protected"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数（および任意の.envファイル）から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Environment
	Env string `mapstructure:"APP_ENV"`

	// Credentials
	PasswordSecret string `mapstructure:"PASSWORD_SECRET"`
	PasswordScheme string `mapstructure:"PASSWORD_SCHEME"`

	// Session
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	SessionFormat string `mapstructure:"SESSION_FORMAT"`
	SessionMaxAge int    `mapstructure:"SESSION_MAX_AGE"`

	// Authorization
	UnownedSchoolPolicy string `mapstructure:"UNOWNED_SCHOOL_POLICY"`

	// Rate Limit（req/min）
	RateLimitGeneral int `mapstructure:"RATE_LIMIT_GENERAL"`
	RateLimitAuth    int `mapstructure:"RATE_LIMIT_AUTH"`

	// Server
	ServerPort string `mapstructure:"SERVER_PORT"`

	// Cookie
	CookieSecure bool   `mapstructure:"-"`
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`

	// CORS / CSRF
	CORSAllowedOrigin string `mapstructure:"CORS_ALLOWED_ORIGIN"`
	CSRFEnabled       bool   `mapstructure:"CSRF_ENABLED"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// IsProduction は本番環境で動作しているかを返す。
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば読み込み、環境変数で上書きする。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // .envが無い場合は無視する

	v.AutomaticEnv()

	// Unmarshalが環境変数を拾えるよう、必須キーも空のデフォルトで登録する
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PASSWORD_SECRET", "")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PASSWORD_SCHEME", PasswordSchemeArgon2id)
	v.SetDefault("SESSION_FORMAT", SessionFormatSigned)
	v.SetDefault("SESSION_MAX_AGE", 60*60*24*7)
	v.SetDefault("UNOWNED_SCHOOL_POLICY", UnownedPolicyEditable)
	v.SetDefault("RATE_LIMIT_GENERAL", 120)
	v.SetDefault("RATE_LIMIT_AUTH", 10)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	v.SetDefault("CSRF_ENABLED", false)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.SessionFormat = strings.ToLower(strings.TrimSpace(cfg.SessionFormat))
	cfg.PasswordScheme = strings.ToLower(strings.TrimSpace(cfg.PasswordScheme))
	cfg.UnownedSchoolPolicy = strings.ToLower(strings.TrimSpace(cfg.UnownedSchoolPolicy))

	// Required fields
	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	// パスワードのダイジェスト計算に使うプロセス共通の秘密値。欠落は致命的な設定エラー。
	if cfg.PasswordSecret == "" {
		missing = append(missing, "PASSWORD_SECRET")
	}
	if cfg.SessionFormat == SessionFormatSigned && cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	switch cfg.SessionFormat {
	case SessionFormatSigned, SessionFormatPlain:
	default:
		return nil, fmt.Errorf("SESSION_FORMAT must be %q or %q, got %q", SessionFormatSigned, SessionFormatPlain, cfg.SessionFormat)
	}

	switch cfg.PasswordScheme {
	case PasswordSchemeArgon2id, PasswordSchemeSHA256:
	default:
		return nil, fmt.Errorf("PASSWORD_SCHEME must be %q or %q, got %q", PasswordSchemeArgon2id, PasswordSchemeSHA256, cfg.PasswordScheme)
	}

	switch cfg.UnownedSchoolPolicy {
	case UnownedPolicyEditable, UnownedPolicyProtected:
	default:
		return nil, fmt.Errorf("UNOWNED_SCHOOL_POLICY must be %q or %q, got %q", UnownedPolicyEditable, UnownedPolicyProtected, cfg.UnownedSchoolPolicy)
	}

	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = 60 * 60 * 24 * 7
	}
	if cfg.RateLimitGeneral <= 0 {
		cfg.RateLimitGeneral = 120
	}
	if cfg.RateLimitAuth <= 0 {
		cfg.RateLimitAuth = 10
	}

	cfg.CookieSecure = cfg.IsProduction()

	return cfg, nil
}
