package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DualOutput(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "cronls.log")
	var console bytes.Buffer

	logger := New(Options{
		Env:          "prod",
		ConsoleLevel: "info",
		FileLevel:    "debug",
		File:         logFile,
		App:          "test-app",
		Console:      &console,
	})
	defer func() {
		require.NoError(t, Close(logger))
	}()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	fileContent := string(content)

	assert.Contains(t, fileContent, "debug message")
	assert.Contains(t, fileContent, "info message")
	assert.Contains(t, fileContent, "warn message")
	assert.Contains(t, fileContent, `"level":"DEBUG"`)
	assert.Contains(t, fileContent, `"app":"test-app"`)

	assert.NotContains(t, console.String(), "debug message")
	assert.Contains(t, console.String(), "info message")
	assert.Contains(t, console.String(), "warn message")
}

func TestNew_DefaultConsoleLevelIsWarn(t *testing.T) {
	var console bytes.Buffer
	logger := New(Options{Env: "prod", App: "test-app", Console: &console})

	logger.Info("progress")
	logger.Warn("dropped line")

	assert.NotContains(t, console.String(), "progress")
	assert.Contains(t, console.String(), "dropped line")
	assert.NoError(t, Close(logger))
}

func TestNew_DevEnvironment(t *testing.T) {
	var console bytes.Buffer
	logger := New(Options{Env: "dev", ConsoleLevel: "debug", App: "test-app", Console: &console})

	logger.Debug("verbose")
	assert.Contains(t, console.String(), "verbose")
	assert.Contains(t, console.String(), "test-app")
}

func TestNew_DefaultConsoleIsStderr(t *testing.T) {
	logger := New(Options{App: "test-app"})
	require.NotNil(t, logger)
	// Closing a logger without a file handler is a no-op.
	assert.NoError(t, Close(logger))
}

func TestRedactingHandler(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "redacted.log")

	logger := New(Options{
		Env:       "prod",
		FileLevel: "debug",
		File:      logFile,
		App:       "test-app",
		Console:   &bytes.Buffer{},
	})
	defer func() {
		require.NoError(t, Close(logger))
	}()

	logger.Warn("dropped line",
		slog.String("token", "abcdef123456"),
		slog.String("user", "john"),
		slog.String("raw", "0 3 * * * mysqldump --password=hunter2 --all-databases"),
	)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	fileContent := string(content)

	assert.NotContains(t, fileContent, "abcdef123456")
	assert.NotContains(t, fileContent, "hunter2")
	assert.Contains(t, fileContent, "[REDACTED]")
	assert.Contains(t, fileContent, "john")
	assert.Contains(t, fileContent, "--all-databases")
}

func TestRedactInline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"echo hi", "echo hi"},
		{"curl -d token=abc https://x", "curl -d token=[REDACTED] https://x"},
		{"x PASSWORD=Secret y", "x PASSWORD=[REDACTED] y"},
		{"a secret=1 secret=2", "a secret=[REDACTED] secret=[REDACTED]"},
		{"db --password='q w'", "db --password='q w'"},
		{"trailing token=", "trailing token="},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, redactInline(tt.in), tt.in)
	}
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFromString("DEBUG"))
	assert.Equal(t, slog.LevelInfo, levelFromString("info"))
	assert.Equal(t, slog.LevelWarn, levelFromString("warn"))
	assert.Equal(t, slog.LevelError, levelFromString("error"))
	assert.Equal(t, slog.LevelInfo, levelFromString("loud"))
}

func TestMultiHandler(t *testing.T) {
	var info, warn bytes.Buffer
	h1 := slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn})

	multi := NewMultiHandler(h1, h2)
	ctx := context.Background()

	assert.True(t, multi.Enabled(ctx, slog.LevelInfo))
	assert.False(t, multi.Enabled(ctx, slog.LevelDebug))

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0)
	require.NoError(t, multi.Handle(ctx, record))
	assert.Contains(t, info.String(), "msg=test")
	assert.Empty(t, warn.String())

	withAttrs := multi.WithAttrs([]slog.Attr{slog.String("key", "value")})
	require.NotNil(t, withAttrs)
	require.NoError(t, withAttrs.Handle(ctx, slog.NewRecord(time.Now(), slog.LevelWarn, "second", 0)))
	assert.True(t, strings.Contains(warn.String(), "key=value"))

	assert.NotNil(t, multi.WithGroup("group"))
}
