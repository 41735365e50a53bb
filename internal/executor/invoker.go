package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xdg/cmdbridge/internal/clog"
)

// DefaultKillGrace is how long a process has to exit after SIGTERM before
// it is sent SIGKILL.
const DefaultKillGrace = 2 * time.Second

// Config holds the fixed parameters shared by every invocation.
type Config struct {
	Program   string        // absolute path of the wrapped program
	Env       Env           // environment snapshot for every child
	Dir       string        // working directory; empty means the bridge's own
	KillGrace time.Duration // SIGTERM to SIGKILL interval
	MaxOutput int           // per-stream capture cap in bytes
}

// Handle is one in-flight child process. It lives only as long as the
// Invoke call that created it.
type Handle struct {
	PID      int
	Started  time.Time
	Deadline time.Time
	cancel   context.CancelFunc
}

// Invoker spawns the configured program. It tracks every live child so
// Shutdown can terminate and reap them all.
type Invoker struct {
	cfg Config

	mu     sync.Mutex
	live   map[*Handle]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewInvoker creates an Invoker for the given program.
func NewInvoker(cfg Config) *Invoker {
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = DefaultKillGrace
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = DefaultMaxOutput
	}
	return &Invoker{
		cfg:  cfg,
		live: make(map[*Handle]struct{}),
	}
}

// Program returns the path of the wrapped program.
func (inv *Invoker) Program() string {
	return inv.cfg.Program
}

// Live returns the number of child processes currently running.
func (inv *Invoker) Live() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.live)
}

// Invoke runs the program with args and blocks until the child has exited
// and been reaped. The argument vector is passed to the kernel directly;
// no shell is involved.
//
// When timeout elapses, or ctx is cancelled, the child's process group gets
// SIGTERM, then SIGKILL after the kill grace. Once the leader has exited,
// output still arriving from descendants is collected for at most the kill
// grace; then the pipes are closed and the group is killed.
func (inv *Invoker) Invoke(ctx context.Context, args []string, timeout time.Duration) Run {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inv.mu.Lock()
	if inv.closed {
		inv.mu.Unlock()
		return Run{State: StateStartFailed, Err: ErrClosed}
	}
	inv.wg.Add(1)
	inv.mu.Unlock()
	defer inv.wg.Done()

	cmd := exec.Command(inv.cfg.Program, args...) //nolint:gosec // G204: program is fixed by configuration
	cmd.Env = inv.cfg.Env.List()
	cmd.Dir = inv.cfg.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// The pipes are ours rather than cmd's so the leader can be reaped while
	// a descendant still holds the write ends.
	outR, outW, err := os.Pipe()
	if err != nil {
		return Run{State: StateStartFailed, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		_ = outR.Close()
		_ = outW.Close()
		return Run{State: StateStartFailed, Err: fmt.Errorf("stderr pipe: %w", err)}
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	started := time.Now()
	startErr := cmd.Start()
	// The child has its own copies of the write ends.
	_ = outW.Close()
	_ = errW.Close()
	if startErr != nil {
		_ = outR.Close()
		_ = errR.Close()
		return Run{State: StateStartFailed, Err: startErr, Started: started, Finished: time.Now()}
	}
	defer func() {
		_ = outR.Close()
		_ = errR.Close()
	}()

	col := newCollector(inv.cfg.MaxOutput)
	col.start(outR, errR)

	h := &Handle{
		PID:      cmd.Process.Pid,
		Started:  started,
		Deadline: started.Add(timeout),
		cancel:   cancel,
	}
	inv.track(h)
	defer inv.untrack(h)
	clog.Debug("executor: started pid=%d deadline=%s", h.PID, h.Deadline.Format(time.RFC3339))

	waited := make(chan error, 1)
	go func() { waited <- cmd.Wait() }()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	waitErr, stopErr, byDeadline := reap(ctx, waited, deadline.C, func() error {
		return inv.terminate(h.PID, waited)
	})

	// Descendants may keep the pipes open after the leader is gone. They get
	// the kill grace to finish writing, then the pipes are cut.
	outData, errData, cut, readErr := col.wait(inv.cfg.KillGrace)
	if cut {
		clog.Warn("executor: pid=%d exited but its output pipes stayed open, killing process group", h.PID)
		if err := unix.Kill(-h.PID, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			clog.Warn("executor: SIGKILL pgid=%d: %v", h.PID, err)
		}
	}

	run := Run{
		PID:      h.PID,
		Started:  started,
		Finished: time.Now(),
		Stdout:   outData,
		Stderr:   errData,
	}

	if stopErr != nil {
		run.State = StateKilled
		run.Deadline = byDeadline
		run.Err = stopErr
		return run
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		run.State = StateExited
		run.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		run.State = StateExited
		run.ExitCode = exitCode(exitErr)
	default:
		run.State = StateExited
		run.ExitCode = -1
		run.Err = waitErr
	}
	if readErr != nil && run.Err == nil {
		run.Err = readErr
	}
	return run
}

// reap waits for the leader's exit status from waited. If the deadline fires
// or ctx is cancelled first, terminate is called and its result returned
// along with the reason. An exit already reaped when the stop arrives wins,
// so a process that finished on time is never reported as killed.
func reap(ctx context.Context, waited <-chan error, deadline <-chan time.Time, terminate func() error) (waitErr, stopErr error, byDeadline bool) {
	select {
	case err := <-waited:
		return err, nil, false
	case <-deadline:
		stopErr, byDeadline = context.DeadlineExceeded, true
	case <-ctx.Done():
		stopErr = context.Cause(ctx)
	}

	select {
	case err := <-waited:
		return err, nil, false
	default:
	}
	return terminate(), stopErr, byDeadline
}

// exitCode reports the child's exit status. A child that died from a signal
// the executor did not send is reported as 128+signal, like a shell would.
func exitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

// terminate signals the whole process group: SIGTERM, then SIGKILL if the
// leader has not been reaped within the grace period. It returns the
// leader's wait result.
func (inv *Invoker) terminate(pid int, waited <-chan error) error {
	clog.Debug("executor: terminating process group %d", pid)
	if err := unix.Kill(-pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		clog.Warn("executor: SIGTERM pgid=%d: %v", pid, err)
	}

	grace := time.NewTimer(inv.cfg.KillGrace)
	defer grace.Stop()
	select {
	case err := <-waited:
		return err
	case <-grace.C:
	}

	clog.Warn("executor: pid=%d ignored SIGTERM for %s, sending SIGKILL", pid, inv.cfg.KillGrace)
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		clog.Error("executor: SIGKILL pgid=%d: %v", pid, err)
	}
	return <-waited
}

func (inv *Invoker) track(h *Handle) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.live[h] = struct{}{}
	// Shutdown may have run between the closed check and now.
	if inv.closed {
		h.cancel()
	}
}

func (inv *Invoker) untrack(h *Handle) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	delete(inv.live, h)
}

// Shutdown refuses new invocations, cancels every live one, and waits until
// all children have been reaped or ctx expires.
func (inv *Invoker) Shutdown(ctx context.Context) error {
	inv.mu.Lock()
	inv.closed = true
	n := len(inv.live)
	for h := range inv.live {
		h.cancel()
	}
	inv.mu.Unlock()

	if n > 0 {
		clog.Info("executor: shutting down, terminating %d running process(es)", n)
	}

	done := make(chan struct{})
	go func() {
		inv.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("executor shutdown: %w", ctx.Err())
	}
}
