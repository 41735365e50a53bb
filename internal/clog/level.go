// Package clog provides leveled operational logging for cmdbridge.
// Execution records for auditing live in internal/audit; clog is for
// operators reading what the service is doing.
//
// Log levels:
//   - Debug: per-process detail (pids, signals), only with --debug
//   - Info: normal operational events
//   - Warn: rejected or timed-out executions and other degraded conditions
//   - Error: failures that affect functionality
//
// Output destinations:
//   - File (or stderr when no file is configured): all enabled levels
//   - Stderr: Warn and Error only, unless quiet
package clog

import (
	"fmt"
	"strings"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for verbose diagnostic information.
	LevelDebug Level = iota
	// LevelInfo is for normal operational events.
	LevelInfo
	// LevelWarn is for unexpected conditions that don't prevent operation.
	LevelWarn
	// LevelError is for failures that affect functionality.
	LevelError
)

// String returns the uppercase name of the level.
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

// ParseLevel parses a level name (case-insensitive). The empty string
// selects LevelInfo; anything unrecognized is an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "err":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
