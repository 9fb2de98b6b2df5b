package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("SESSION_LIFETIME", "48h")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("S3_BUCKET", "photos")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 7, cfg.DBMaxOpenConns)
	assert.Equal(t, 48*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.StorageEnabled())
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("AUTH_RATE_LIMIT", "many")
	t.Setenv("AUTH_RATE_WINDOW", "soon")

	assert.Equal(t, 10, envInt("AUTH_RATE_LIMIT", 10))
	assert.Equal(t, time.Minute, envDuration("AUTH_RATE_WINDOW", time.Minute))
}
