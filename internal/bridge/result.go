// Package bridge coordinates command executions: it validates requests,
// applies admission control, drives the executor, and encodes results.
package bridge

import (
	"time"

	"github.com/xdg/cmdbridge/internal/executor"
)

// Outcome is the terminal state of one request.
type Outcome string

// Outcomes reported to callers.
const (
	Completed Outcome = "Completed"
	TimedOut  Outcome = "TimedOut"
	Rejected  Outcome = "Rejected"
	Failed    Outcome = "Failed"
)

// Truncation reports which streams hit the capture cap.
type Truncation struct {
	Stdout bool `json:"stdout"`
	Stderr bool `json:"stderr"`
}

// Streams returns the names of the truncated streams.
func (t Truncation) Streams() []string {
	var s []string
	if t.Stdout {
		s = append(s, "stdout")
	}
	if t.Stderr {
		s = append(s, "stderr")
	}
	return s
}

// Result is the immutable outcome of one request.
type Result struct {
	ID         string        `json:"id"`
	Outcome    Outcome       `json:"outcome"`
	ExitCode   *int          `json:"exit_code"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	DurationMs int64         `json:"duration_ms"`
	Truncated  Truncation    `json:"truncated"`
	Detail     string        `json:"detail,omitempty"`
	Duration   time.Duration `json:"-"`
}

// Encode builds a Result. It performs no I/O.
//
// The exit code is reported only for Completed; every other outcome means
// the bridge has no exit status of the tool's own to report.
func Encode(id string, outcome Outcome, exitCode int, stdout, stderr executor.Output, d time.Duration, detail string) Result {
	r := Result{
		ID:         id,
		Outcome:    outcome,
		Stdout:     stdout.Data,
		Stderr:     stderr.Data,
		DurationMs: d.Milliseconds(),
		Duration:   d,
		Truncated: Truncation{
			Stdout: stdout.Truncated,
			Stderr: stderr.Truncated,
		},
		Detail: detail,
	}
	if outcome == Completed {
		code := exitCode
		r.ExitCode = &code
	}
	return r
}

// encodeRun maps an executor.Run onto a Result.
func encodeRun(id string, run executor.Run) Result {
	switch run.State {
	case executor.StateExited:
		return Encode(id, Completed, run.ExitCode, run.Stdout, run.Stderr, run.Duration(), "")
	case executor.StateKilled:
		detail := "deadline exceeded"
		if !run.Deadline {
			detail = "cancelled"
		}
		return Encode(id, TimedOut, 0, run.Stdout, run.Stderr, run.Duration(), detail)
	default:
		detail := "process could not be started"
		if run.Err != nil {
			detail = run.Err.Error()
		}
		return Encode(id, Failed, 0, executor.Output{}, executor.Output{}, run.Duration(), detail)
	}
}

// rejected returns the Result for a request refused by admission control.
func rejected(id, detail string) Result {
	return Encode(id, Rejected, 0, executor.Output{}, executor.Output{}, 0, detail)
}
