package bootstrap

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/onboard-ui/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LogConfig{Level: slog.LevelWarn, Format: config.LogFormatJSON})
	logger.Info("dropped")
	logger.Warn("kept", "step", "username")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "username", line["step"])

	buf.Reset()
	NewLogger(&buf, config.LogConfig{Format: config.LogFormatText}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"AUTH_MODE", "BACKEND_MODE", "SESSION_STORE", "DEV", "NODE_ENV", "LOG_LEVEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"AUTH_MODE", "DEV", "NODE_ENV"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUTH_MODE=mock\n"), 0o600))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
