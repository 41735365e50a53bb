package clog

import (
	"io"
	"log"
	"os"
)

// std is the global logger instance used by package-level functions.
var std = NewLogger()

// Options selects where and how much the global logger writes.
type Options struct {
	// File is the log file path. Empty or "-" writes every message to
	// stderr instead.
	File string
	// Level is a level name understood by ParseLevel.
	Level string
	// Debug forces LevelDebug regardless of Level.
	Debug bool
	// Quiet keeps the terminal clear. Without a File, messages go to
	// DefaultLogPath.
	Quiet bool
}

// Configure sets up the global logger.
func Configure(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	if opts.Debug {
		level = LevelDebug
	}

	file := opts.File
	if opts.Quiet && file == "" {
		file = DefaultLogPath()
	}

	if file == "" || file == "-" {
		// stderr is already the primary writer; don't echo warnings twice.
		std.SetFileOutput(os.Stderr)
		std.SetErrOutput(nil)
	} else {
		f, err := OpenLogFile(file)
		if err != nil {
			return err
		}
		std.SetFileOutput(f)
		std.SetQuiet(opts.Quiet)
	}
	std.SetLevel(level)
	return nil
}

// SetLevel sets the minimum log level for the global logger.
func SetLevel(level Level) {
	std.SetLevel(level)
}

// SetFileOutput sets the primary writer for the global logger.
func SetFileOutput(w io.Writer) {
	std.SetFileOutput(w)
}

// SetErrOutput sets the stderr writer for the global logger.
func SetErrOutput(w io.Writer) {
	std.SetErrOutput(w)
}

// SetQuiet enables or disables quiet mode for the global logger.
func SetQuiet(quiet bool) {
	std.SetQuiet(quiet)
}

// Debug logs a debug message using the global logger.
func Debug(format string, args ...any) {
	std.Debug(format, args...)
}

// Info logs an informational message using the global logger.
func Info(format string, args ...any) {
	std.Info(format, args...)
}

// Warn logs a warning message using the global logger.
func Warn(format string, args ...any) {
	std.Warn(format, args...)
}

// Error logs an error message using the global logger.
func Error(format string, args ...any) {
	std.Error(format, args...)
}

// Close closes the primary writer if it is a file other than stderr.
func Close() error {
	std.mu.Lock()
	defer std.mu.Unlock()

	if std.fileWriter == os.Stderr {
		return nil
	}
	if closer, ok := std.fileWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Reset resets the global logger to default state.
// This is primarily useful for testing.
func Reset() {
	std = NewLogger()
}

// Discard configures the global logger to discard all output.
// This is useful for silencing logs in tests.
func Discard() {
	std.SetFileOutput(io.Discard)
	std.SetErrOutput(io.Discard)
}

// TestLogger returns a debug-level logger that writes to w.
func TestLogger(w io.Writer) *Logger {
	l := NewLogger()
	l.SetFileOutput(w)
	l.SetErrOutput(nil)
	l.SetLevel(LevelDebug)
	return l
}

// ReplaceGlobal replaces the global logger and returns the previous one.
// Caller should restore the original logger after a test.
func ReplaceGlobal(l *Logger) *Logger {
	old := std
	std = l
	return old
}

// StdLogger returns a standard library *log.Logger that writes to clog at
// the given level. It is meant for http.Server.ErrorLog and similar hooks.
func StdLogger(level Level) *log.Logger {
	return log.New(Writer(level), "", 0)
}

// Writer returns an io.Writer that writes to clog at the specified level.
func Writer(level Level) io.Writer {
	return &levelWriter{level: level}
}

type levelWriter struct {
	level Level
}

func (w *levelWriter) Write(p []byte) (n int, err error) {
	msg := string(p)
	// Trim trailing newline since log functions add their own
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	switch w.level {
	case LevelDebug:
		Debug("%s", msg)
	case LevelInfo:
		Info("%s", msg)
	case LevelWarn:
		Warn("%s", msg)
	case LevelError:
		Error("%s", msg)
	}
	return len(p), nil
}
