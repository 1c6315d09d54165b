package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lesson-extract/internal/config"
)

func TestNewConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "test"}, zapcore.AddSync(&buf))

	logger.Debug("walking catalog", zap.String("target", "advanced"))
	logger.Warn("slide loop stopped")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, colorCyan+"DEBUG"+colorReset)
	assert.Contains(t, out, colorYellow+"WARN"+colorReset)
	assert.Contains(t, out, "test.")
	assert.Contains(t, out, "walking catalog")
	assert.Contains(t, out, `"target": "advanced"`)
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))

	logger.Debug("hidden")
	logger.Info("saved lesson", zap.String("path", "advanced/00_intro.md"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "saved lesson", entry["msg"])
	assert.Equal(t, "advanced/00_intro.md", entry["path"])
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogFileRotationTarget(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.log")
	var console bytes.Buffer
	logger := New(config.LoggerConfig{Level: "info", Format: "console", LogFile: logFile, MaxSize: 1}, zapcore.AddSync(&console))

	logger.Info("lesson written")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"lesson written"`)
	assert.Contains(t, console.String(), "lesson written")
}
