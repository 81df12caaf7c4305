package liveserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabonline/liveserver/config"
	"github.com/kochabonline/liveserver/transport"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, "/static/", cfg.Static.URL)
	assert.Equal(t, "/health", cfg.Health.Path)
	assert.False(t, cfg.Health.Enabled)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("LIVESERVER_ADDR", "127.0.0.1:9000-9010,9100")
	t.Setenv("LIVESERVER_HEALTH_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000-9010,9100", cfg.Addr)
	assert.True(t, cfg.Health.Enabled)
}

func TestLoadConfigInvalidAddr(t *testing.T) {
	t.Setenv("LIVESERVER_ADDR", "localhost:http")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "addr must be an address specification")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "addr: localhost:8000-8002\nstatic:\n  root: /srv/static\nmetrics:\n  enabled: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "liveserver.yaml"), []byte(content), 0o600))

	cfg, err := LoadConfig(config.WithProvider(config.ProviderFile), config.WithPath(dir), config.WithName("liveserver.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8000-8002", cfg.Addr)
	assert.Equal(t, "/srv/static", cfg.Static.Root)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfigRootStatic(t *testing.T) {
	t.Setenv("LIVESERVER_STATIC_URL", "/")
	t.Setenv("LIVESERVER_STATIC_ROOT", t.TempDir())

	_, err := LoadConfig()
	assert.ErrorIs(t, err, transport.ErrInvalidStatic)
}
