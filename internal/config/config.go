package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (driver switch via ENV, default: sqlite)
	DBDriver       string
	DBConnection   string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// HTTP
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// Sessions
	SessionLifetime time.Duration
	AuthRateLimit   int
	AuthRateWindow  time.Duration
	TrustedProxies  []string // IPs or CIDRs allowed to set X-Forwarded-For

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability
	LogLevel  string
	SentryDSN string

	// Storage (S3-compatible, optional: review photo uploads are disabled without a bucket)
	S3Region            string
	S3Bucket            string
	S3AccessKey         string
	S3SecretKey         string
	S3Endpoint          string
	S3PresignExpiry     time.Duration
	PhotoMaxUploadBytes int64
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Resto Rate"),
		AppEnv:  envRequired("APP_ENV"), // 'development', 'test' or 'production'
		AppURL:  envString("APP_URL", "http://localhost:3000"),
		Port:    envString("PORT", "3000"),

		// Database
		DBDriver:       envString("DB_DRIVER", "sqlite"),
		DBConnection:   envString("DB_CONNECTION", "./data/resto-rate.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_time_format=sqlite"),
		DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: envInt("DB_MAX_IDLE_CONNS", 5),

		// HTTP
		CORSOrigins:     envList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MetricsEnabled:  envBool("METRICS_ENABLED", true),

		// Sessions
		SessionLifetime: envDuration("SESSION_LIFETIME", 30*24*time.Hour), // 30 days
		AuthRateLimit:   envInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow:  envDuration("AUTH_RATE_WINDOW", 15*time.Minute),
		TrustedProxies:  envList("TRUSTED_PROXIES", nil),

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  envString("GOOGLE_REDIRECT_URI", "http://localhost:5173/auth/callback"),

		// Email (RESEND_API_KEY optional, e-mails are logged without it)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		LogLevel:  envString("LOG_LEVEL", "info"),
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:            envString("S3_REGION", "us-east-1"),
		S3Bucket:            envString("S3_BUCKET", ""),
		S3AccessKey:         envString("S3_ACCESS_KEY", ""),
		S3SecretKey:         envString("S3_SECRET_KEY", ""),
		S3Endpoint:          envString("S3_ENDPOINT", ""),
		S3PresignExpiry:     envDuration("S3_PRESIGN_EXPIRY", 168*time.Hour), // 7 days
		PhotoMaxUploadBytes: int64(envInt("PHOTO_MAX_UPLOAD_BYTES", 5<<20)),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures OAuth is configured for production deployments.
func validateProduction(cfg *Config) {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		slog.Error("production deployment requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList reads a comma separated list, dropping empty items.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}
