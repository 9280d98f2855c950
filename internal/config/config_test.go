package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	require.NoError(t, err)

	cfg := mgr.Get()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "x11", cfg.Authority.Backend)
	assert.Equal(t, 2*time.Second, cfg.Authority.PollInterval())

	// The default config is persisted.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewManager_LoadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server_port: 9999
log_level: debug
authority:
  backend: x11
  poll_interval_ms: 250
compat:
  target_dpi: 96
  scale: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	mgr, err := NewManager(path)
	require.NoError(t, err)

	cfg := mgr.Get()
	assert.Equal(t, 9999, cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Authority.PollInterval())
	assert.Equal(t, 96, cfg.Compat.TargetDPI)
	assert.Equal(t, 1.5, cfg.Compat.Scale)
}

func TestManager_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	mgr, err := NewManager(path)
	require.NoError(t, err)

	mgr.SetPort(9090)
	mgr.SetLogLevel("warn")

	cfg := mgr.Get()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestManager_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	mgr, err := NewManager(path)
	require.NoError(t, err)

	mgr.SetPort(7070)
	require.NoError(t, mgr.Save())

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, reloaded.Get().ServerPort)
}

func TestCompatConfig_Params(t *testing.T) {
	c := CompatConfig{TargetDPI: 120, Scale: 2}
	p := c.Params()
	assert.Equal(t, 120, p.TargetDPI)
	assert.Equal(t, 2.0, p.Scale)
}
