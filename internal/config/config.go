package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 認証モード
const (
	AuthModeLocal    = "local"
	AuthModeSupabase = "supabase"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Environment
	Env string

	// Database
	DatabaseURL string

	// Supabase
	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	BackendTimeout         time.Duration

	// Auth
	AuthMode             string
	DefaultAdminUsername string
	DefaultAdminPassword string
	AllowAdminEmails     []string

	// Session
	SessionMaxAge int

	// Report
	ReportCacheTTL time.Duration

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitLogin   int

	// Logging
	LogLevel  string
	LogFormat string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigins []string
}

// IsProduction は本番環境かを返す。
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadDotEnv はカレントディレクトリの.envを読み込む。
// ファイルが存在しない場合は何もしない。既に設定済みの環境変数は上書きしない。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	if cfg.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}

	cfg.SupabaseAnonKey = os.Getenv("SUPABASE_ANON_KEY")
	if cfg.SupabaseAnonKey == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}

	cfg.SupabaseServiceRoleKey = getEnvString("SUPABASE_SERVICE_ROLE_KEY", os.Getenv("SUPABASE_SERVICE_KEY"))
	if cfg.SupabaseServiceRoleKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.AuthMode = strings.ToLower(getEnvString("AUTH_MODE", AuthModeLocal))
	if cfg.AuthMode != AuthModeLocal && cfg.AuthMode != AuthModeSupabase {
		return nil, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeLocal, AuthModeSupabase, cfg.AuthMode)
	}

	// Optional fields with defaults
	cfg.Env = getEnvString("ENV", "development")
	cfg.SupabaseJWTSecret = getEnvString("SUPABASE_JWT_SECRET", "")
	cfg.BackendTimeout = getEnvDuration("BACKEND_TIMEOUT", 10*time.Second)
	cfg.DefaultAdminUsername = getEnvString("DEFAULT_ADMIN_USERNAME", "telemed")
	cfg.DefaultAdminPassword = getEnvString("DEFAULT_ADMIN_PASSWORD", "Telemed@DHI")
	cfg.AllowAdminEmails = getEnvList("ALLOW_ADMIN_EMAILS", nil)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.ReportCacheTTL = getEnvDuration("REPORT_CACHE_TTL", 60*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvString("LOG_FORMAT", "json")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{cfg.BaseURL})

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの値を空要素を除いて返す。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
