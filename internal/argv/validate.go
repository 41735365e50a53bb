// Package argv checks the shape of client-supplied argument vectors before
// they reach the process boundary. It never interprets what arguments mean.
package argv

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidArgument is the sentinel wrapped by every validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

// Default limits applied when a Limits field is zero.
const (
	DefaultMaxArgs   = 64
	DefaultMaxArgLen = 4096
)

// shellMeta lists bytes a shell would interpret. The invoker never runs a
// shell, so rejecting these is a second line of defense only.
const shellMeta = ";&|$`<>()\\!*?[]{}~#'\"\n"

// Limits bounds the shape of an argument vector.
type Limits struct {
	MaxArgs         int  // maximum number of arguments
	MaxArgLen       int  // maximum length of a single argument in bytes
	RejectShellMeta bool // reject shell metacharacters
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxArgs:         DefaultMaxArgs,
		MaxArgLen:       DefaultMaxArgLen,
		RejectShellMeta: true,
	}
}

// Error describes a rejected argument vector.
// Index is -1 when the failure concerns the list as a whole.
type Error struct {
	Index  int
	Arg    string
	Reason string
}

func (e *Error) Error() string {
	if e.Index < 0 {
		return "invalid argument: " + e.Reason
	}
	return fmt.Sprintf("invalid argument %d (%s): %s", e.Index, Canonical([]string{e.Arg}), e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidArgument).
func (e *Error) Unwrap() error {
	return ErrInvalidArgument
}

// Validate checks args against the limits. On success it returns args
// unchanged; on failure it returns an *Error naming the first offending
// element.
func Validate(args []string, lim Limits) ([]string, error) {
	if lim.MaxArgs <= 0 {
		lim.MaxArgs = DefaultMaxArgs
	}
	if lim.MaxArgLen <= 0 {
		lim.MaxArgLen = DefaultMaxArgLen
	}

	if len(args) > lim.MaxArgs {
		return nil, &Error{
			Index:  -1,
			Reason: fmt.Sprintf("too many arguments: %d exceeds maximum of %d", len(args), lim.MaxArgs),
		}
	}

	for i, arg := range args {
		if reason := checkArg(arg, lim); reason != "" {
			return nil, &Error{Index: i, Arg: truncateForDisplay(arg), Reason: reason}
		}
	}
	return args, nil
}

// checkArg returns a non-empty reason if arg is malformed.
func checkArg(arg string, lim Limits) string {
	if len(arg) > lim.MaxArgLen {
		return fmt.Sprintf("length %d exceeds maximum of %d", len(arg), lim.MaxArgLen)
	}
	if !utf8.ValidString(arg) {
		return "not valid UTF-8"
	}
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if c == 0 {
			return "contains NUL byte"
		}
		if lim.RejectShellMeta && isShellMeta(c) {
			return fmt.Sprintf("contains shell metacharacter %q", c)
		}
		if c < 0x20 || c == 0x7f {
			return fmt.Sprintf("contains control byte 0x%02x", c)
		}
	}
	return ""
}

func isShellMeta(c byte) bool {
	for i := 0; i < len(shellMeta); i++ {
		if shellMeta[i] == c {
			return true
		}
	}
	return false
}

// truncateForDisplay shortens long arguments so error messages stay small.
func truncateForDisplay(s string) string {
	const maxDisplay = 64
	if len(s) <= maxDisplay {
		return s
	}
	return s[:maxDisplay] + "..."
}
