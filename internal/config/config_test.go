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

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "gambit.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, uint64(1000000), cfg.ScanMaxRange)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GAMBIT_ADDR", ":9090")
	t.Setenv("GAMBIT_LOG_JSON", "true")
	t.Setenv("GAMBIT_SCAN_TIMEOUT", "5s")
	t.Setenv("GAMBIT_JOKER_SCRIPTS", "/srv/jokers")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 5*time.Second, cfg.ScanTimeout)
	assert.Equal(t, "/srv/jokers", cfg.JokerScripts)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("GAMBIT_SCAN_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}
