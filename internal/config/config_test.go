package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, int64(50), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, int64(52428800), cfg.Upload.MaxFileSize())
	assert.True(t, cfg.Upload.RevalidateOnRoutingChange)
	assert.True(t, cfg.Upload.RequireCredential)
	assert.Equal(t, 20, cfg.Upload.HistoryLimit)
	assert.Equal(t, "memory", cfg.Staging.Provider)
	assert.Equal(t, "noop", cfg.Notify.Provider)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HELIX_BACKEND_BASE_URL", "https://processor.internal/")
	t.Setenv("HELIX_UPLOAD_MAX_FILE_SIZE_MB", "10")
	t.Setenv("HELIX_UPLOAD_REVALIDATE_ON_ROUTING_CHANGE", "false")
	t.Setenv("HELIX_STAGING_PROVIDER", "s3")
	t.Setenv("HELIX_STAGING_PREFIX", "/incoming/")
	t.Setenv("HELIX_CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("HELIX_SESSION_IDLE_TIMEOUT", "5m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://processor.internal", cfg.Backend.BaseURL)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileSize())
	assert.False(t, cfg.Upload.RevalidateOnRoutingChange)
	assert.Equal(t, "s3", cfg.Staging.Provider)
	assert.Equal(t, "incoming", cfg.Staging.Prefix)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
}

func TestLoad_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)

	t.Setenv("HELIX_SERVER_PORT", ":7070")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Port)
}

func TestLoad_RejectsNonPositiveSessionDurations(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"HELIX_SESSION_SWEEP_INTERVAL", "0s"},
		{"HELIX_SESSION_SWEEP_INTERVAL", "-1m"},
		{"HELIX_SESSION_IDLE_TIMEOUT", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_CLIToken(t *testing.T) {
	t.Setenv("HELIX_TOKEN", "tok-env")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-env", cfg.CLI.Token)
}
