// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/warden-cli/internal/config"
)

// syncBuffer adapts bytes.Buffer into a zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func initTestLogger(t *testing.T, cfg config.LoggerConfig) *syncBuffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(cfg, zapcore.Lock(buf))
	return buf
}

func TestInitialize_ConsoleFormat(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "warden-test",
	})

	GetLogger().Info("hello from the console encoder")
	out := buf.String()
	assert.Contains(t, out, "hello from the console encoder")
	assert.Contains(t, out, "warden-test.")
}

func TestInitialize_LevelFiltering(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:  "warn",
		Format: "console",
	})

	GetLogger().Info("should be suppressed")
	GetLogger().Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be suppressed")
	assert.Contains(t, out, "should appear")
}

func TestInitialize_InvalidLevelFallsBackToInfo(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:  "chatty",
		Format: "console",
	})

	GetLogger().Debug("debug hidden at info")
	GetLogger().Info("info visible")

	out := buf.String()
	assert.NotContains(t, out, "debug hidden at info")
	assert.Contains(t, out, "info visible")
}

func TestInitialize_FileCoreWritesJSON(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "warden.log")
	initTestLogger(t, config.LoggerConfig{
		Level:   "info",
		Format:  "console",
		LogFile: logFile,
		MaxSize: 1,
	})

	GetLogger().Info("structured file entry")
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.True(t, strings.HasPrefix(line, "{"), "file sink must be JSON, got: %s", line)
	assert.Contains(t, line, `"structured file entry"`)
}

func TestInitialize_OnlyOnce(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{Level: "info", Format: "console"})

	// A second call must not replace the configured logger.
	Initialize(config.LoggerConfig{Level: "error", Format: "json"}, zapcore.Lock(&syncBuffer{}))
	GetLogger().Info("still the first logger")
	assert.Contains(t, buf.String(), "still the first logger")
}

func TestGetLogger_FallbackBeforeInit(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)

	// The fallback must not be promoted to the global slot.
	assert.Nil(t, globalLogger.Load())
}

func TestSync_NoopWithoutLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	Sync()
}
