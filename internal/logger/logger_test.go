package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileLogger(t *testing.T, level Level, maxSize int64) (*DefaultLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	l, err := NewDefaultLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: maxSize,
		MaxBackups:  3,
		Level:       level,
		StackTraces: true,
	})
	require.NoError(t, err)
	return l, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestLogLevels(t *testing.T) {
	l, path := newFileLogger(t, LevelDebug, 1024*1024)

	l.Debug("debug message", String("key", "value"))
	l.Info("info message", Int("count", 42))
	l.Warn("warn message", Bool("flag", true))
	l.Error("error message", errors.New("test error"), Float64("rate", 3.14))
	require.NoError(t, l.Close())

	content := readLog(t, path)
	for _, want := range []string{
		"[DEBUG] debug message key=value",
		"[INFO] info message count=42",
		"[WARN] warn message flag=true",
		"[ERROR] error message",
		`error="test error"`,
		"rate=3.14",
		"Stack trace:",
	} {
		assert.Contains(t, content, want)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	l, path := newFileLogger(t, LevelWarn, 1024*1024)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", nil)
	l.Close()

	content := readLog(t, path)
	assert.NotContains(t, content, "[DEBUG]")
	assert.NotContains(t, content, "[INFO]")
	assert.Contains(t, content, "[WARN]")
	assert.Contains(t, content, "[ERROR]")
}

func TestSetLevel(t *testing.T) {
	l, path := newFileLogger(t, LevelDebug, 1024*1024)

	l.Debug("debug before")
	l.SetLevel(LevelError)
	l.Debug("debug after")
	l.Warn("warn after")
	l.Error("error after", nil)
	l.Close()

	content := readLog(t, path)
	assert.Contains(t, content, "debug before")
	assert.NotContains(t, content, "debug after")
	assert.NotContains(t, content, "warn after")
	assert.Contains(t, content, "error after")
}

func TestLogRotation(t *testing.T) {
	l, path := newFileLogger(t, LevelDebug, 100)

	for i := 0; i < 20; i++ {
		l.Info("This is a test message that should trigger log rotation eventually")
	}
	l.Close()

	_, err := os.Stat(path + ".1")
	assert.NoError(t, err, "backup log file was not created after rotation")
}

func TestFieldFormatting(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewDefaultLogger(ConsoleConfig(&buf, LevelDebug))
	require.NoError(t, err)

	l.Info("test fields",
		String("str", "hello"),
		String("spaced", "two words"),
		Int64("int64", 9223372036854775807),
		Err(errors.New("sample error")),
		Bool("ok", true),
	)

	out := buf.String()
	assert.Contains(t, out, "str=hello")
	assert.Contains(t, out, `spaced="two words"`)
	assert.Contains(t, out, "int64=9223372036854775807")
	assert.Contains(t, out, `error="sample error"`)
	assert.Contains(t, out, "ok=true")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestConsoleOnlyLoggerHasNoFile(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewDefaultLogger(ConsoleConfig(&buf, LevelInfo))
	require.NoError(t, err)

	l.Debug("hidden")
	l.Error("boom", errors.New("x"))
	assert.NoError(t, l.Close())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[ERROR] boom")
	assert.NotContains(t, buf.String(), "Stack trace:")
}

func TestGlobalLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "global.log")
	require.NoError(t, Init(&Config{LogFilePath: logPath, Level: LevelDebug}))

	Debug("global debug")
	Info("global info")
	Warn("global warn")
	Error("global error", errors.New("global test error"))
	require.NoError(t, Close())

	content := readLog(t, logPath)
	for _, want := range []string{"global debug", "global info", "global warn", "global error"} {
		assert.Contains(t, content, want)
	}
}

func TestNoopLogger(t *testing.T) {
	SetGlobalLogger(nil)

	assert.NotPanics(t, func() {
		Debug("test")
		Info("test")
		Warn("test")
		Error("test", nil)
	})
	assert.NotNil(t, GetLogger())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"verbose", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestLogDirectoryCreation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "dir", "test.log")

	l, err := NewDefaultLogger(&Config{LogFilePath: logPath, Level: LevelDebug})
	require.NoError(t, err)
	defer l.Close()

	_, err = os.Stat(filepath.Dir(logPath))
	assert.NoError(t, err)
}
