package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_PORT", "DB_DRIVER", "REDIS_ADDR", "TOKEN_TTL", "TIME_ZONE", "RATE_LIMIT_PER_MIN", "MAX_UPLOAD_MB", "AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}

	cfg := load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "/tmp/rollcall.db")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("TIME_ZONE", "Asia/Kolkata")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("AUTO_MIGRATE", "false")

	cfg := load(filepath.Join(t.TempDir(), "missing.env"))
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/rollcall.db", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.False(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("TOKEN_TTL", "soon")
	t.Setenv("TIME_ZONE", "Mars/Olympus")
	t.Setenv("RATE_LIMIT_PER_MIN", "-4")
	t.Setenv("AUTO_MIGRATE", "maybe")

	cfg := load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.True(t, cfg.AutoMigrate)
	assert.Len(t, cfg.Warnings, 5)
}

func TestLoad_DotEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "7000")
	// registered so godotenv's writes are restored after the test
	t.Setenv("JWT_ISSUER", "")
	require.NoError(t, os.Unsetenv("JWT_ISSUER"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=6000\nJWT_ISSUER=from-file\n"), 0o600))

	cfg := load(path)
	assert.Equal(t, "7000", cfg.HTTPPort, "environment wins over file")
	assert.Equal(t, "from-file", cfg.JWTIssuer)
}

func TestLoad_IntegersMustBeWhole(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MIN", "12abc")
	t.Setenv("MAX_UPLOAD_MB", "5 MB")

	cfg := load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, 10, cfg.MaxUploadMB)
	require.Len(t, cfg.Warnings, 2)
	assert.Contains(t, cfg.Warnings[0], `invalid value "12abc" for RATE_LIMIT_PER_MIN`)
	assert.Contains(t, cfg.Warnings[1], `invalid value "5 MB" for MAX_UPLOAD_MB`)

	t.Setenv("RATE_LIMIT_PER_MIN", " 15 ")
	t.Setenv("MAX_UPLOAD_MB", "")
	cfg = load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, 15, cfg.RateLimitPerMin)
	assert.Empty(t, cfg.Warnings)
}
