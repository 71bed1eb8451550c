package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalVariantByDefault(t *testing.T) {
	t.Setenv("TAREAS_API_URL", "")
	t.Setenv("TAREAS_DATA_DIR", t.TempDir())
	t.Setenv("TAREAS_THEME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Remote())
	assert.Equal(t, "classic", cfg.Theme)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestRemoteVariantWhenURLSet(t *testing.T) {
	t.Setenv("TAREAS_API_URL", "https://api.example.com")
	t.Setenv("TAREAS_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Remote())
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
}

func TestFixedPositionFromEnv(t *testing.T) {
	t.Setenv("TAREAS_DATA_DIR", t.TempDir())
	t.Setenv("TAREAS_LAT", "-33.4489")
	t.Setenv("TAREAS_LON", "-70.6693")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "-33.4489", cfg.Latitude)
	assert.Equal(t, "-70.6693", cfg.Longitude)
}
