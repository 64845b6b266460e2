package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "H5VIEW_ADDR", "H5VIEW_DATA_DIR", "H5VIEW_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Render.MatrixRows)
	assert.Equal(t, 20, cfg.Render.MatrixCols)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "h5view.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:9000"
	cfg.Data.Dir = "/srv/data"
	cfg.Render.MatrixCols = 8
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "h5view.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  matrix_rows: 5\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Render.MatrixRows)
	assert.Equal(t, 20, cfg.Render.MatrixCols)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h5view.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("H5VIEW_DATA_DIR", "/data")
	t.Setenv("H5VIEW_LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "/data", cfg.Data.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)

	t.Setenv("H5VIEW_ADDR", "0.0.0.0:4000")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Addr)
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Minute, cfg.GetSessionTTL())
	assert.Equal(t, 30*time.Second, cfg.GetReadTimeout())

	cfg.Server.SessionTTL = "5m"
	cfg.Server.WriteTimeout = "not a duration"
	assert.Equal(t, 5*time.Minute, cfg.GetSessionTTL())
	assert.Equal(t, 60*time.Second, cfg.GetWriteTimeout())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "max_upload_bytes"},
		{"sessions", func(c *Config) { c.Server.MaxSessions = 0 }, "max_sessions"},
		{"matrix", func(c *Config) { c.Render.MatrixRows = -1 }, "matrix limits"},
		{"scale", func(c *Config) { c.Render.FrameScale = 0 }, "frame_scale"},
		{"thumbnail", func(c *Config) { c.Render.ThumbnailSize = 0 }, "thumbnail_size"},
		{"elements", func(c *Config) { c.Render.MaxElements = 0 }, "max_elements"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
