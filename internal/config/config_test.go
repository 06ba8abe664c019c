package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	for _, k := range []string{"BUILDER_API_URL", "BUILDER_TIMEOUT", "BUILDER_THEME"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())
	assert.Equal(t, "system", cfg.Display.Theme)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://builder.example.com"
	cfg.Display.Theme = "dark"
	require.NoError(t, cfg.Save(path))
	t.Setenv("BUILDER_API_URL", "")
	t.Setenv("BUILDER_THEME", "")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://builder.example.com", loaded.API.BaseURL)
	assert.Equal(t, "dark", loaded.Display.Theme)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BUILDER_API_URL", "http://api.local:9000")
	t.Setenv("BUILDER_TIMEOUT", "5s")
	t.Setenv("BUILDER_TOKEN_KEY", "secret")
	t.Setenv("BUILDER_THEME", "light")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://api.local:9000", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.GetTimeout())
	assert.Equal(t, "secret", cfg.State.TokenKey)
	assert.Equal(t, "light", cfg.Display.Theme)
}

func TestInvalidTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display:\n  theme: neon\n"), 0644))
	t.Setenv("BUILDER_THEME", "")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestBadTimeoutFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Timeout = "soon"
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())
}
