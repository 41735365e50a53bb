package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xdg/cmdbridge/internal/argv"
	"github.com/xdg/cmdbridge/internal/audit"
	"github.com/xdg/cmdbridge/internal/clog"
	"github.com/xdg/cmdbridge/internal/executor"
	"github.com/xdg/cmdbridge/internal/metrics"
)

// Defaults for Options fields left at zero.
const (
	DefaultCapacity   = 4
	DefaultTimeout    = 60 * time.Second
	DefaultMaxTimeout = 10 * time.Minute
)

// Rejection details.
const (
	DetailCapacity     = "capacity exceeded"
	DetailShuttingDown = "shutting down"
)

// ErrInvalidTimeout is returned for a timeout that is not positive or is
// above the configured maximum. It matches argv.ErrInvalidArgument.
var ErrInvalidTimeout = fmt.Errorf("%w: timeout", argv.ErrInvalidArgument)

// Request is one command invocation. The program is fixed by configuration
// and is never part of a request.
type Request struct {
	Args    []string
	Timeout time.Duration // zero selects the default timeout
}

// Options configures a Coordinator.
type Options struct {
	Capacity int

	// AdmissionWait bounds how long a request waits for a free slot before
	// it is rejected. Zero rejects immediately when the pool is full.
	AdmissionWait time.Duration

	DefaultTimeout time.Duration
	MaxTimeout     time.Duration
	Limits         argv.Limits

	// CancelOnDisconnect ties each execution to the caller's context, so a
	// dropped client terminates its process. Off by default: only the
	// deadline or Shutdown end an execution early.
	CancelOnDisconnect bool

	// Audit receives one line per event. May be nil.
	Audit *audit.Logger

	// Version is the wrapped program's self-reported version, for health.
	Version string
}

// Coordinator is the entry point for executions. It is safe for concurrent
// use.
type Coordinator struct {
	inv     *executor.Invoker
	opts    Options
	adm     *admission
	closing atomic.Bool
	newID   func() string
}

// New creates a Coordinator that runs programs through inv.
func New(inv *executor.Invoker, opts Options) *Coordinator {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.AdmissionWait < 0 {
		opts.AdmissionWait = 0
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.MaxTimeout <= 0 {
		opts.MaxTimeout = DefaultMaxTimeout
	}
	if opts.DefaultTimeout > opts.MaxTimeout {
		opts.DefaultTimeout = opts.MaxTimeout
	}
	return &Coordinator{
		inv:   inv,
		opts:  opts,
		adm:   newAdmission(opts.Capacity, opts.AdmissionWait),
		newID: uuid.NewString,
	}
}

// MaxTimeout returns the largest timeout a request may ask for.
func (c *Coordinator) MaxTimeout() time.Duration {
	return c.opts.MaxTimeout
}

// Run executes one request. It returns an error only when the request is
// malformed (matching argv.ErrInvalidArgument); every other outcome,
// including rejection, is reported in the Result.
//
// Run never retries: one call starts at most one process.
func (c *Coordinator) Run(ctx context.Context, req Request) (Result, error) {
	id := c.newID()
	cmd := argv.Canonical(req.Args)

	timeout, err := c.resolveTimeout(req.Timeout)
	if err == nil {
		_, err = argv.Validate(req.Args, c.opts.Limits)
	}
	if err != nil {
		clog.Info("bridge: %s invalid request: %v", id, err)
		_ = c.opts.Audit.LogInvalid(id, cmd, err.Error())
		return Result{}, err
	}

	_ = c.opts.Audit.LogRequest(id, cmd)

	if c.closing.Load() {
		return c.reject(id, cmd, DetailShuttingDown), nil
	}

	release, err := c.adm.acquire(ctx)
	if err != nil {
		return c.reject(id, cmd, DetailCapacity), nil
	}
	defer release()

	execCtx := context.WithoutCancel(ctx)
	if c.opts.CancelOnDisconnect {
		execCtx = ctx
	}

	clog.Debug("bridge: %s running %s (timeout %s)", id, cmd, timeout)
	run := c.inv.Invoke(execCtx, req.Args, timeout)
	if run.State == executor.StateStartFailed && errors.Is(run.Err, executor.ErrClosed) {
		return c.reject(id, cmd, DetailShuttingDown), nil
	}
	res := encodeRun(id, run)
	c.record(res, cmd, run)
	return res, nil
}

// resolveTimeout applies the default and enforces the maximum.
func (c *Coordinator) resolveTimeout(requested time.Duration) (time.Duration, error) {
	if requested == 0 {
		return c.opts.DefaultTimeout, nil
	}
	if requested < 0 {
		return 0, fmt.Errorf("%w must be positive, got %s", ErrInvalidTimeout, requested)
	}
	if requested > c.opts.MaxTimeout {
		return 0, fmt.Errorf("%w %s exceeds maximum of %s", ErrInvalidTimeout, requested, c.opts.MaxTimeout)
	}
	return requested, nil
}

func (c *Coordinator) reject(id, cmd, detail string) Result {
	clog.Warn("bridge: %s rejected: %s", id, detail)
	_ = c.opts.Audit.LogReject(id, cmd, detail)
	metrics.RecordExecution(string(Rejected), 0)
	return rejected(id, detail)
}

func (c *Coordinator) record(res Result, cmd string, run executor.Run) {
	truncated := res.Truncated.Streams()
	for _, s := range truncated {
		metrics.RecordTruncation(s)
	}
	metrics.RecordExecution(string(res.Outcome), res.Duration)

	switch res.Outcome {
	case Completed:
		clog.Info("bridge: %s completed exit=%d duration=%s", res.ID, *res.ExitCode, res.Duration)
		if run.Err != nil {
			clog.Warn("bridge: %s output collection: %v", res.ID, run.Err)
		}
		_ = c.opts.Audit.LogComplete(res.ID, cmd, *res.ExitCode, res.Duration, truncated)
	case TimedOut:
		clog.Warn("bridge: %s timed out after %s (%s)", res.ID, res.Duration, res.Detail)
		_ = c.opts.Audit.LogTimeout(res.ID, cmd, res.Duration, truncated)
	case Failed:
		clog.Error("bridge: %s failed to start %s: %s", res.ID, c.inv.Program(), res.Detail)
		_ = c.opts.Audit.LogFail(res.ID, cmd, res.Detail)
	}
}

// Stats reports admitted executions against capacity.
func (c *Coordinator) Stats() (inFlight, capacity int) {
	n, cp := c.adm.stats()
	return int(n), int(cp)
}

// Shutdown stops admitting requests, terminates every running process and
// waits for all of them to be reaped or for ctx to expire. It is safe to call
// more than once.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if c.closing.CompareAndSwap(false, true) {
		clog.Info("bridge: shutdown requested")
	}
	return c.inv.Shutdown(ctx)
}
