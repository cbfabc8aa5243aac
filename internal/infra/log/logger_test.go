package log

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func readLog(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	return string(data)
}

func TestFileLoggerKeepsRequestFields(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Options{Dir: dir, Level: "debug"})
	require.NoError(t, err)

	l.Request("abc123").Info("pipeline finished", zap.Int("rows", 2), zap.Error(errors.New("none")))
	l.Sync()

	out := readLog(t, dir)
	assert.Contains(t, out, "INFO pipeline finished")
	assert.Contains(t, out, `"request_id":"abc123"`)
	assert.Contains(t, out, `"rows":2`)
	assert.Contains(t, out, `"error":"none"`)
}

func TestLevelFiltersFileCore(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Options{Dir: dir, Level: "info"})
	require.NoError(t, err)

	l.Debug("hidden detail")
	l.Warn("visible warning")
	l.Sync()

	out := readLog(t, dir)
	assert.NotContains(t, out, "hidden detail")
	assert.Contains(t, out, "WARN visible warning")
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestSuccessAndErrorReachConsole(t *testing.T) {
	fileCore, fileLogs := observer.New(zapcore.DebugLevel)
	consoleCore, consoleLogs := observer.New(zapcore.InfoLevel)
	l := NewWithCores(fileCore, consoleCore)

	l.Info("file only")
	l.Success("infographic delivered", zap.Int64("duration_ms", 12))
	l.Error("render failed", zap.String("stage", "charts"))

	assert.Equal(t, 3, fileLogs.Len())
	entries := consoleLogs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "✓ infographic delivered (12ms)", entries[0].Message)
	assert.Equal(t, "✗ render failed", entries[1].Message)
}

func TestLogResponseEchoesFailures(t *testing.T) {
	fileCore, fileLogs := observer.New(zapcore.DebugLevel)
	consoleCore, consoleLogs := observer.New(zapcore.InfoLevel)
	l := NewWithCores(fileCore, consoleCore)

	l.LogResponse("/upload", 200, 5)
	l.LogResponse("/upload", 400, 3)

	assert.Equal(t, 2, fileLogs.Len())
	require.Equal(t, 1, consoleLogs.Len())
	assert.Equal(t, "✗ HTTP request failed [400] /upload", consoleLogs.All()[0].Message)
}
