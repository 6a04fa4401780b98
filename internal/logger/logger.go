// Package logger provides leveled, structured logging for the PDF translator.
// Entries go to an optional log file (rotated by size) and, when enabled, to a
// console writer.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of a log message
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a Level.
// Unknown names map to LevelInfo and ok=false.
func ParseLevel(name string) (level Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger defines the logging interface
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)
	// Info logs an informational message with optional fields
	Info(msg string, fields ...Field)
	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)
	// Error logs an error message with the error and optional fields
	Error(msg string, err error, fields ...Field)
	// SetLevel sets the minimum level that is written
	SetLevel(level Level)
	// Close releases the log file
	Close() error
}

// Config holds the configuration for the logger
type Config struct {
	// LogFilePath is the path to the log file. Empty disables file output.
	LogFilePath string
	// MaxFileSize is the maximum size of a log file in bytes before rotation
	MaxFileSize int64
	// MaxBackups is the maximum number of backup log files to keep
	MaxBackups int
	// Level is the minimum log level to output
	Level Level
	// EnableConsole enables output to Console in addition to the file
	EnableConsole bool
	// Console is the console writer; nil means os.Stderr
	Console io.Writer
	// StackTraces appends a stack trace to ERROR entries
	StackTraces bool
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		LogFilePath:   "pdf-translator.log",
		MaxFileSize:   10 * 1024 * 1024, // 10 MB
		MaxBackups:    5,
		Level:         LevelInfo,
		EnableConsole: false,
		StackTraces:   true,
	}
}

// ConsoleConfig returns a configuration that only writes to w.
func ConsoleConfig(w io.Writer, level Level) *Config {
	return &Config{
		Level:         level,
		EnableConsole: true,
		Console:       w,
	}
}

// DefaultLogger is the default implementation of the Logger interface
type DefaultLogger struct {
	config     *Config
	file       *os.File
	mu         sync.Mutex
	level      Level
	fileSize   int64
	writers    []io.Writer
	timeFormat string
}

// NewDefaultLogger creates a new DefaultLogger with the given configuration
func NewDefaultLogger(config *Config) (*DefaultLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	logger := &DefaultLogger{
		config:     config,
		level:      config.Level,
		timeFormat: "2006-01-02 15:04:05.000",
	}

	// File output is optional; the CLI logs to the console only by default
	if config.LogFilePath != "" {
		logDir := filepath.Dir(config.LogFilePath)
		if logDir != "" && logDir != "." {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		if err := logger.openLogFile(); err != nil {
			return nil, err
		}
	}

	// Setup writers
	logger.setupWriters()
	return logger, nil
}

// openLogFile opens the log file for appending and records its current size
func (l *DefaultLogger) openLogFile() error {
	file, err := os.OpenFile(l.config.LogFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	l.file = file
	l.fileSize = info.Size()
	return nil
}

// setupWriters rebuilds the writer list from the open file and the console
func (l *DefaultLogger) setupWriters() {
	l.writers = l.writers[:0]
	if l.file != nil {
		l.writers = append(l.writers, l.file)
	}
	if l.config.EnableConsole {
		console := l.config.Console
		if console == nil {
			console = os.Stderr
		}
		l.writers = append(l.writers, console)
	}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, nil, fields...)
}

// Info logs an informational message
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, nil, fields...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, nil, fields...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, err error, fields ...Field) {
	l.log(LevelError, msg, err, fields...)
}

// SetLevel sets the minimum log level
func (l *DefaultLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close closes the log file, if any
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// log writes one entry to every writer
func (l *DefaultLogger) log(level Level, msg string, err error, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Check if level is enabled
	if level < l.level {
		return
	}

	entry := l.formatEntry(level, msg, err, fields...)

	// Rotate before the write that would exceed MaxFileSize
	if l.file != nil && l.shouldRotate(int64(len(entry))) {
		l.rotate()
	}

	for _, w := range l.writers {
		w.Write([]byte(entry))
	}

	l.fileSize += int64(len(entry))
}

// formatEntry renders "<time> [LEVEL] msg error=".." key=value ..."
func (l *DefaultLogger) formatEntry(level Level, msg string, err error, fields ...Field) string {
	var sb strings.Builder

	// Timestamp
	sb.WriteString(time.Now().Format(l.timeFormat))
	sb.WriteString(" [")
	sb.WriteString(level.String())
	sb.WriteString("] ")
	sb.WriteString(msg)

	// Error (if present)
	if err != nil {
		sb.WriteString(" error=\"")
		sb.WriteString(err.Error())
		sb.WriteString("\"")
	}

	// Fields
	for _, f := range fields {
		sb.WriteString(" ")
		sb.WriteString(f.Key)
		sb.WriteString("=")
		sb.WriteString(formatValue(f.Value))
	}

	if level == LevelError && l.config.StackTraces {
		sb.WriteString("\n")
		sb.WriteString(stackTrace())
	}

	sb.WriteString("\n")
	return sb.String()
}

// formatValue quotes strings containing spaces so entries stay splittable on spaces.
func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if _, isString := v.(string); isString && strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// stackTrace returns the caller's stack, without runtime and testing frames
func stackTrace() string {
	var sb strings.Builder
	sb.WriteString("Stack trace:\n")

	// Skip log, Error and formatEntry frames.
	const skip = 5
	for i := skip; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		funcName := "unknown"
		if fn := runtime.FuncForPC(pc); fn != nil {
			funcName = fn.Name()
		}

		// Skip runtime and testing frames
		if strings.Contains(funcName, "runtime.") || strings.Contains(funcName, "testing.") {
			continue
		}

		sb.WriteString(fmt.Sprintf("  %s:%d %s\n", file, line, funcName))

		// Limit stack trace depth
		if i-skip > 10 {
			sb.WriteString("  ... (truncated)\n")
			break
		}
	}

	return sb.String()
}

// shouldRotate reports whether writing additionalSize bytes would exceed MaxFileSize
func (l *DefaultLogger) shouldRotate(additionalSize int64) bool {
	return l.config.MaxFileSize > 0 && l.fileSize+additionalSize > l.config.MaxFileSize
}

// rotate renames log -> log.1 -> log.2 ... keeping at most MaxBackups files.
func (l *DefaultLogger) rotate() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	// Shift existing backups up by one
	for i := l.config.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", l.config.LogFilePath, i)
		newPath := fmt.Sprintf("%s.%d", l.config.LogFilePath, i+1)
		os.Rename(oldPath, newPath)
	}

	if _, err := os.Stat(l.config.LogFilePath); err == nil {
		os.Rename(l.config.LogFilePath, l.config.LogFilePath+".1")
	}

	// Drop the backup beyond MaxBackups
	os.Remove(fmt.Sprintf("%s.%d", l.config.LogFilePath, l.config.MaxBackups+1))

	if err := l.openLogFile(); err != nil {
		l.setupWriters()
		return err
	}

	l.setupWriters()
	return nil
}

// 全局 logger，Init 之前为 nil，此时 GetLogger 返回 no-op 实现
var (
	globalLogger Logger
	globalMu     sync.RWMutex
)

// Init initializes the global logger with the given configuration
func Init(config *Config) error {
	logger, err := NewDefaultLogger(config)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	// Close existing logger if any
	if globalLogger != nil {
		globalLogger.Close()
	}
	globalLogger = logger
	return nil
}

// GetLogger returns the global logger instance, or a no-op logger before Init.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalLogger == nil {
		return &noopLogger{}
	}
	return globalLogger
}

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Close closes the global logger
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger != nil {
		err := globalLogger.Close()
		globalLogger = nil
		return err
	}
	return nil
}

// Package-level helpers write to the global logger.

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	GetLogger().Debug(msg, fields...)
}

// Info logs an informational message using the global logger
func Info(msg string, fields ...Field) {
	GetLogger().Info(msg, fields...)
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message using the global logger
func Error(msg string, err error, fields ...Field) {
	GetLogger().Error(msg, err, fields...)
}

// noopLogger discards everything; it stands in before Init and after Close
type noopLogger struct{}

func (n *noopLogger) Debug(msg string, fields ...Field)            {}
func (n *noopLogger) Info(msg string, fields ...Field)             {}
func (n *noopLogger) Warn(msg string, fields ...Field)             {}
func (n *noopLogger) Error(msg string, err error, fields ...Field) {}
func (n *noopLogger) SetLevel(level Level)                         {}
func (n *noopLogger) Close() error                                 { return nil }
