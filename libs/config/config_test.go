package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "password")
	t.Setenv("DB_NAME", "studentserving")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("APP_BASE_URL", "")
	t.Setenv("UPLOAD_ROOT", "")
	t.Setenv("ASSET_CLEANUP_MODE", "")
	t.Setenv("ORPHAN_GRACE_PERIOD", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "uploads", cfg.Storage.UploadRoot)
	assert.Equal(t, CleanupModeInline, cfg.Cleanup.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Cleanup.OrphanGracePeriod)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, "root:password@tcp(localhost:3306)/studentserving?parseTime=true&charset=utf8mb4", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_BASE_URL", "https://students.example.com/")
	t.Setenv("ASSET_CLEANUP_MODE", "QUEUE")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, ,https://students.example.com")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://students.example.com", cfg.Server.BaseURL)
	assert.Equal(t, CleanupModeQueue, cfg.Cleanup.Mode)
	assert.Equal(t, []string{"http://localhost:5173", "https://students.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		value         string
		errorContains string
	}{
		{name: "missing db host", key: "DB_HOST", value: "", errorContains: "DB_HOST is required"},
		{name: "invalid db port", key: "DB_PORT", value: "abc", errorContains: "invalid DB_PORT"},
		{name: "missing jwt secret", key: "JWT_SECRET", value: "", errorContains: "JWT_SECRET is required"},
		{name: "invalid cleanup mode", key: "ASSET_CLEANUP_MODE", value: "later", errorContains: "invalid ASSET_CLEANUP_MODE"},
		{name: "invalid grace period", key: "ORPHAN_GRACE_PERIOD", value: "tomorrow", errorContains: "invalid ORPHAN_GRACE_PERIOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}
