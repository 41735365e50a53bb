package clog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetFileOutput(&buf)
	l.SetErrOutput(nil) // disable stderr for testing
	l.SetLevel(LevelDebug)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()

	// Check all levels are present
	if !strings.Contains(output, "[DEBUG] debug message") {
		t.Errorf("expected debug message in output, got: %s", output)
	}
	if !strings.Contains(output, "[INFO] info message") {
		t.Errorf("expected info message in output, got: %s", output)
	}
	if !strings.Contains(output, "[WARN] warn message") {
		t.Errorf("expected warn message in output, got: %s", output)
	}
	if !strings.Contains(output, "[ERROR] error message") {
		t.Errorf("expected error message in output, got: %s", output)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetFileOutput(&buf)
	l.SetErrOutput(nil)
	l.SetLevel(LevelWarn) // Only warn and above

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()

	// Debug and Info should be filtered out
	if strings.Contains(output, "debug message") {
		t.Errorf("debug message should be filtered, got: %s", output)
	}
	if strings.Contains(output, "info message") {
		t.Errorf("info message should be filtered, got: %s", output)
	}
	// Warn and Error should be present
	if !strings.Contains(output, "[WARN] warn message") {
		t.Errorf("expected warn message in output, got: %s", output)
	}
	if !strings.Contains(output, "[ERROR] error message") {
		t.Errorf("expected error message in output, got: %s", output)
	}
}

func TestLogger_Quiet(t *testing.T) {
	var fileBuf, errBuf bytes.Buffer
	l := NewLogger()
	l.SetFileOutput(&fileBuf)
	l.SetErrOutput(&errBuf)
	l.SetLevel(LevelDebug)

	// Default: warn/error go to both file and stderr
	l.Warn("cli warning")
	l.Error("cli error")

	if !strings.Contains(fileBuf.String(), "cli warning") {
		t.Errorf("expected warning in file output")
	}
	if !strings.Contains(errBuf.String(), "cli warning") {
		t.Errorf("expected warning in stderr output")
	}

	// Clear buffers
	fileBuf.Reset()
	errBuf.Reset()

	// Quiet: only file output
	l.SetQuiet(true)
	l.Warn("quiet warning")
	l.Error("quiet error")

	if !strings.Contains(fileBuf.String(), "quiet warning") {
		t.Errorf("expected warning in file output")
	}
	if strings.Contains(errBuf.String(), "quiet warning") {
		t.Errorf("quiet mode should not write to stderr")
	}
}

func TestLogger_FormatWithArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetFileOutput(&buf)
	l.SetErrOutput(nil)
	l.SetLevel(LevelDebug)

	l.Info("count: %d, name: %s", 42, "test")

	output := buf.String()
	if !strings.Contains(output, "count: 42, name: test") {
		t.Errorf("expected formatted message, got: %s", output)
	}
}

func TestLogger_TimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetFileOutput(&buf)
	l.SetErrOutput(nil)

	l.Info("test")

	output := buf.String()
	// Should have RFC3339 timestamp (e.g., 2024-01-15T14:32:05Z)
	if !strings.Contains(output, "T") || !strings.Contains(output, "Z") {
		t.Errorf("expected RFC3339 timestamp, got: %s", output)
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "test.log")

	f, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile() error = %v", err)
	}
	defer f.Close()

	// Write something
	_, err = f.WriteString("test log entry\n")
	if err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}

	// Close and reopen to test append mode
	f.Close()
	f, err = OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile() reopen error = %v", err)
	}
	defer f.Close()

	_, err = f.WriteString("second entry\n")
	if err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	f.Close()

	// Read back
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if !strings.Contains(string(content), "test log entry") {
		t.Errorf("expected first entry in file")
	}
	if !strings.Contains(string(content), "second entry") {
		t.Errorf("expected second entry in file")
	}
}

func TestDefaultLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	if got, want := DefaultLogPath(), "/state/cmdbridge/cmdbridge.log"; got != want {
		t.Errorf("DefaultLogPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_STATE_HOME", "")
	path := DefaultLogPath()
	if !strings.Contains(path, filepath.Join(".local", "state", "cmdbridge")) {
		t.Errorf("expected XDG default in path, got: %s", path)
	}
}

func TestLogger_FixedClock(t *testing.T) {
	var buf bytes.Buffer
	l := TestLogger(&buf)
	l.now = func() time.Time { return time.Date(2024, 1, 15, 14, 32, 5, 0, time.UTC) }

	l.Info("bridge: %s completed", "abc")

	want := "2024-01-15T14:32:05Z [INFO] bridge: abc completed\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestLogger_Level(t *testing.T) {
	l := NewLogger()
	if l.Level() != LevelInfo {
		t.Errorf("default Level() = %v, want INFO", l.Level())
	}
	l.SetLevel(LevelError)
	if l.Level() != LevelError {
		t.Errorf("Level() = %v, want ERROR", l.Level())
	}
}
