package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.CacheWindowAhead)
	assert.Equal(t, 2, cfg.CacheWindowBehind)
	assert.Equal(t, 180*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2, cfg.FetchConcurrency)
	assert.Equal(t, 15, cfg.ReconnectMaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.ReconnectInterval)
	assert.Equal(t, "yt-dlp", cfg.YtdlpPath)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("CACHE_WINDOW_AHEAD", "5")
	t.Setenv("FETCH_TIMEOUT", "90s")
	t.Setenv("RECONNECT_INTERVAL", "3s")
	t.Setenv("YTDLP_PATH", "/usr/local/bin/yt-dlp")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5, cfg.CacheWindowAhead)
	assert.Equal(t, 90*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReconnectInterval)
	assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.YtdlpPath)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("CACHE_WINDOW_AHEAD", "lots")
	t.Setenv("FETCH_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.CacheWindowAhead)
	assert.Equal(t, 180*time.Second, cfg.FetchTimeout)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.CacheDir = ""
	assert.Error(t, cfg.Validate())

	cfg, _ = Load()
	cfg.CacheWindowBehind = -1
	assert.Error(t, cfg.Validate())

	cfg, _ = Load()
	cfg.FetchConcurrency = 0
	assert.Error(t, cfg.Validate())

	cfg, _ = Load()
	cfg.ReconnectMaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg, _ = Load()
	cfg.QueuePageSize = 0
	assert.Error(t, cfg.Validate())
}
