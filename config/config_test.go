package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", c.Badge.RootPath)
	assert.Equal(t, time.Minute, c.StartupDelay())
	assert.Equal(t, 5*time.Minute, c.IdleTimeout())
	assert.True(t, c.Power.KeepAliveEnabled)
	assert.Equal(t, 10*time.Second, c.KeepAliveInterval())
	assert.Equal(t, 200*time.Millisecond, c.KeepAliveDuration())
	assert.Equal(t, []string{"*"}, c.Origins())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("BADGE_ROOT_PATH", "/littlefs")
	t.Setenv("BADGE_STARTUP_DELAY_MS", "0")
	t.Setenv("BADGE_KEEPALIVE_ENABLED", "false")
	t.Setenv("BADGE_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("BADGE_CORS_ORIGINS", "http://192.168.4.1, http://badge.local")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/littlefs", c.Badge.RootPath)
	assert.Equal(t, time.Duration(0), c.StartupDelay())
	assert.False(t, c.Power.KeepAliveEnabled)
	assert.Equal(t, "127.0.0.1:9000", c.WebServer.ListenAddr)
	assert.Equal(t, []string{"http://192.168.4.1", "http://badge.local"}, c.Origins())
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Display.Brightness = 300
	assert.Error(t, c.Validate())

	c = Default()
	c.Badge.StartupDelayMs = -1
	assert.Error(t, c.Validate())

	c = Default()
	c.Badge.RootPath = ""
	assert.Error(t, c.Validate())
}

func TestGetLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		c := Default()
		c.Badge.LogLevel = in
		assert.Equal(t, want, c.GetLogLevel().Level(), in)
	}
}
