package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdmx/toolbelt/config"
)

func TestNew(t *testing.T) {
	t.Run("DevelopmentMode", func(t *testing.T) {
		log, err := New("development", "debug")
		require.NoError(t, err)
		require.NotNil(t, log)
		log.Debug("development logger works")
		_ = log.Sync()
	})

	t.Run("ProductionMode", func(t *testing.T) {
		log, err := New("production", "info")
		require.NoError(t, err)
		require.NotNil(t, log)
		log.Info("production logger works")
		_ = log.Sync()
	})

	t.Run("InvalidMode", func(t *testing.T) {
		log, err := New("verbose", "info")
		require.Error(t, err)
		assert.Nil(t, log)
		assert.Contains(t, err.Error(), "invalid logging mode")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		log, err := New("production", "loud")
		require.Error(t, err)
		assert.Nil(t, log)
		assert.Contains(t, err.Error(), "invalid logging level")
	})
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Logging: config.LoggingConfig{
			Mode:  "production",
			Level: "warn",
		},
	}

	log, err := NewFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
	_ = log.Sync()
}
