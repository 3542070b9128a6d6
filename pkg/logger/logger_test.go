// pkg/logger/logger_test.go
package logger

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

	"github.com/tamzrod/modbus-acquisitor/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("err"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestBuild_JSONStdoutRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := build(config.LogConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", zap.String("point", "level"))
	require.NoError(t, l.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "level", entry["point"])
	assert.Contains(t, entry, "timestamp")
}

func TestBuild_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := build(config.LogConfig{Level: "debug", Format: "console"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	l.Debug("tick processed")
	require.NoError(t, l.Sync())

	assert.Contains(t, buf.String(), "tick processed")
	assert.Contains(t, buf.String(), "logger/logger_test.go")
}

func TestBuild_RotatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	l, err := build(config.LogConfig{Level: "info", Format: "console", Path: dir, MaxAge: 1}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	l.Info("to file")
	require.NoError(t, l.Sync())

	matches, err := filepath.Glob(filepath.Join(dir, "acquisitor-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}
