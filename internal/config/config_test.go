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

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://maps.izurvive.com/maps/{map_name}/{version}/tiles/", cfg.BaseURL)
	assert.Equal(t, "DayZ", cfg.MapLabel)
	assert.Equal(t, 256, cfg.TileSize)
	assert.Equal(t, "webp", cfg.TileFormat)
	assert.Equal(t, "file", cfg.CacheType)
	assert.Equal(t, "tiles", cfg.CacheDir)
	assert.Equal(t, 1, cfg.FetchWorkers)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE", "sqlite")
	t.Setenv("FETCH_WORKERS", "8")
	t.Setenv("FETCH_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sqlite", cfg.CacheType)
	assert.Equal(t, 8, cfg.FetchWorkers)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
}
