package clog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xdg/cmdbridge/internal/pathutil"
)

// Logger handles leveled logging to a primary writer and, for warnings and
// errors, to stderr.
type Logger struct {
	mu         sync.Mutex
	level      Level
	fileWriter io.Writer // receives every message at or above level
	errWriter  io.Writer // receives warn/error unless quiet
	quiet      bool
	now        func() time.Time
}

// NewLogger creates a logger at Info level that writes warnings to stderr.
func NewLogger() *Logger {
	return &Logger{
		level:     LevelInfo,
		errWriter: os.Stderr,
		now:       time.Now,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum log level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetFileOutput sets the primary writer. Pass nil to disable it.
func (l *Logger) SetFileOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fileWriter = w
}

// SetErrOutput sets the stderr writer. Pass nil to disable it.
func (l *Logger) SetErrOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errWriter = w
}

// SetQuiet stops warnings and errors from being echoed to stderr. Messages
// still go to the primary writer.
func (l *Logger) SetQuiet(quiet bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quiet = quiet
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.fileWriter != nil {
		line := fmt.Sprintf("%s [%s] %s\n", l.now().UTC().Format(time.RFC3339), level, msg)
		_, _ = io.WriteString(l.fileWriter, line)
	}

	if l.quiet || l.errWriter == nil || level < LevelWarn {
		return
	}
	_, _ = fmt.Fprintf(l.errWriter, "[%s] %s\n", level, msg)
}

// OpenLogFile opens a log file for appending, creating parent directories if
// needed.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// DefaultLogPath returns the default log file path following XDG conventions:
// $XDG_STATE_HOME/cmdbridge/cmdbridge.log, or ~/.local/state/cmdbridge/cmdbridge.log.
func DefaultLogPath() string {
	return filepath.Join(pathutil.XDGDir("XDG_STATE_HOME", "~/.local/state", "cmdbridge"), "cmdbridge.log")
}
