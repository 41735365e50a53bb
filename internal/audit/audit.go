// Package audit records one line per execution event in a key=value format
// suitable for grep and log shippers.
package audit

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EventType represents the type of execution event.
type EventType string

// Event types, in the order an execution may produce them.
const (
	EventRequest  EventType = "REQUEST"
	EventInvalid  EventType = "INVALID"
	EventReject   EventType = "REJECT"
	EventComplete EventType = "COMPLETE"
	EventTimeout  EventType = "TIMEOUT"
	EventFail     EventType = "FAIL"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time
	Type      EventType

	// ID identifies the execution the event belongs to.
	ID string

	// Cmd is the canonical (shell-quoted) argument vector.
	Cmd string

	// Reason explains INVALID, REJECT and FAIL events.
	Reason string

	// ExitCode is set for COMPLETE events.
	ExitCode int

	// Duration is set for COMPLETE, TIMEOUT and FAIL events.
	Duration time.Duration

	// Truncated lists the streams whose capture was cut short.
	Truncated []string
}

// Format returns the log entry as a single line.
// Format: 2024-01-15T14:32:05Z EXEC COMPLETE id=... cmd="module list" exit=0 duration=1.2s
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" EXEC ")
	b.WriteString(string(e.Type))
	b.WriteString(" id=")
	b.WriteString(e.ID)
	b.WriteString(" cmd=")
	b.WriteString(quoteValue(e.Cmd))

	switch e.Type {
	case EventInvalid, EventReject:
		writeOptionalField(&b, "reason", e.Reason)
	case EventComplete:
		b.WriteString(" exit=")
		b.WriteString(strconv.Itoa(e.ExitCode))
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventTimeout:
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventFail:
		writeOptionalField(&b, "reason", e.Reason)
	}
	if len(e.Truncated) > 0 {
		b.WriteString(" truncated=")
		b.WriteString(strings.Join(e.Truncated, ","))
	}

	return b.String()
}

func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

func quoteValue(s string) string {
	return strconv.Quote(s)
}

// formatDuration formats a duration as a human-readable string (e.g., "2.3s", "1m30s").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer.
// A nil *Logger is valid and discards everything.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger creates a new audit logger that writes to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Log writes an event to the audit log.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := io.WriteString(l.w, e.Format()+"\n"); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogRequest logs a REQUEST event.
func (l *Logger) LogRequest(id, cmd string) error {
	return l.Log(&Event{Timestamp: time.Now(), Type: EventRequest, ID: id, Cmd: cmd})
}

// LogInvalid logs an INVALID event for a request that failed validation.
func (l *Logger) LogInvalid(id, cmd, reason string) error {
	return l.Log(&Event{Timestamp: time.Now(), Type: EventInvalid, ID: id, Cmd: cmd, Reason: reason})
}

// LogReject logs a REJECT event for a request refused by admission control.
func (l *Logger) LogReject(id, cmd, reason string) error {
	return l.Log(&Event{Timestamp: time.Now(), Type: EventReject, ID: id, Cmd: cmd, Reason: reason})
}

// LogComplete logs a COMPLETE event.
func (l *Logger) LogComplete(id, cmd string, exitCode int, duration time.Duration, truncated []string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventComplete,
		ID:        id,
		Cmd:       cmd,
		ExitCode:  exitCode,
		Duration:  duration,
		Truncated: truncated,
	})
}

// LogTimeout logs a TIMEOUT event.
func (l *Logger) LogTimeout(id, cmd string, duration time.Duration, truncated []string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventTimeout,
		ID:        id,
		Cmd:       cmd,
		Duration:  duration,
		Truncated: truncated,
	})
}

// LogFail logs a FAIL event for a process that could not be started.
func (l *Logger) LogFail(id, cmd, reason string) error {
	return l.Log(&Event{Timestamp: time.Now(), Type: EventFail, ID: id, Cmd: cmd, Reason: reason})
}
