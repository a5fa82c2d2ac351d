package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "file", cfg.Storage)
	assert.Equal(t, 1500*time.Millisecond, cfg.RevertDelay)
	assert.Equal(t, 30*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_HTTP_ADDR", ":9090")
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "Redis")
	t.Setenv("STOREFRONT_BACKEND_URL", "https://api.example.com/")
	t.Setenv("STOREFRONT_CHECKOUT_REVERT_DELAY", "2s")
	t.Setenv("STOREFRONT_HTTP_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "redis", cfg.Storage)
	assert.Equal(t, "https://api.example.com", cfg.BackendURL)
	assert.Equal(t, 2*time.Second, cfg.RevertDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadRejectsUnknownStorage(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "floppy")

	_, err := Load()
	assert.Error(t, err)
}
