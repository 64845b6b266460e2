// Package config loads h5view settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all h5view configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	ReadTimeout    string `yaml:"read_timeout"`
	WriteTimeout   string `yaml:"write_timeout"`
	SessionTTL     string `yaml:"session_ttl"`
	MaxSessions    int    `yaml:"max_sessions"`
	CORS           bool   `yaml:"cors"`
}

// DataConfig configures the server-side file catalog.
type DataConfig struct {
	Dir   string `yaml:"dir"`   // empty disables the catalog
	Watch bool   `yaml:"watch"` // refresh the listing on filesystem events
}

// RenderConfig configures the renderers and frame export.
type RenderConfig struct {
	MatrixRows    int `yaml:"matrix_rows"`
	MatrixCols    int `yaml:"matrix_cols"`
	FrameScale    int `yaml:"frame_scale"`     // default upscale factor for frame images
	MaxScaledEdge int `yaml:"max_scaled_edge"` // longest edge after upscaling, in pixels
	ThumbnailSize int `yaml:"thumbnail_size"`
	MaxElements   int `yaml:"max_elements"` // larger datasets are read by leading extent
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 512 << 20,
			ReadTimeout:    "30s",
			WriteTimeout:   "60s",
			SessionTTL:     "30m",
			MaxSessions:    16,
			CORS:           true,
		},
		Data: DataConfig{
			Watch: true,
		},
		Render: RenderConfig{
			MatrixRows:    100,
			MatrixCols:    20,
			FrameScale:    1,
			MaxScaledEdge: 2048,
			ThumbnailSize: 128,
			MaxElements:   1 << 24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// PORT is the platform convention; H5VIEW_ADDR wins when both are set.
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("H5VIEW_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if dir := os.Getenv("H5VIEW_DATA_DIR"); dir != "" {
		c.Data.Dir = dir
	}
	if level := os.Getenv("H5VIEW_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the server write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 60*time.Second)
}

// GetSessionTTL returns the session idle timeout as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Server.SessionTTL, 30*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted logging formats.
var ValidLogFormats = []string{"json", "console"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("server.max_sessions must be positive, got %d", c.Server.MaxSessions)
	}
	if c.Render.MatrixRows < 0 || c.Render.MatrixCols < 0 {
		return fmt.Errorf("render matrix limits must not be negative, got %dx%d", c.Render.MatrixRows, c.Render.MatrixCols)
	}
	if c.Render.FrameScale < 1 {
		return fmt.Errorf("render.frame_scale must be at least 1, got %d", c.Render.FrameScale)
	}
	if c.Render.MaxScaledEdge < 1 || c.Render.ThumbnailSize < 1 {
		return errors.New("render.max_scaled_edge and render.thumbnail_size must be positive")
	}
	if c.Render.MaxElements < 1 {
		return fmt.Errorf("render.max_elements must be positive, got %d", c.Render.MaxElements)
	}
	if !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid logging format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
