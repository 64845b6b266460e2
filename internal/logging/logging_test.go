package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robert-malhotra/h5view/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		cfg     config.LoggingConfig
		verbose bool
		want    zapcore.Level
	}{
		{config.LoggingConfig{Level: "info", Format: "json"}, false, zapcore.InfoLevel},
		{config.LoggingConfig{Level: "warn", Format: "console"}, false, zapcore.WarnLevel},
		{config.LoggingConfig{Level: "error", Format: "json"}, true, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Level, func(t *testing.T) {
			logger, err := New(tt.cfg, tt.verbose)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, false)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
