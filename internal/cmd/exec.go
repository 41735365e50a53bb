package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xdg/cmdbridge/internal/bridge"
	"github.com/xdg/cmdbridge/internal/clog"
)

// Exit codes for outcomes that carry no exit status of the program's own.
// They follow timeout(1) and sysexits.h.
const (
	exitTimedOut = 124
	exitFailed   = 127
	exitRejected = 75
)

var execTimeout time.Duration

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- [ARGS...]",
	Short: "Run the program once and print the JSON result",
	Long: `Run the configured program once through the same validation, limits and
capture as POST /command, and print the result as JSON: indented on a
terminal, one line otherwise.

cmdbridge exits with the program's exit code. A timed-out execution exits 124,
one that could not start exits 127, and one refused for lack of capacity
exits 75.`,
	Example: `  cmdbridge exec -- module list
  cmdbridge exec --timeout 5s -- system health`,
	RunE: runExec,
}

func init() {
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "execution timeout (default limits.default_timeout)")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Keep stderr for the program's own diagnostics unless asked otherwise.
	if cfg.Log.File == "" && !debugLog {
		cfg.Log.Level = "warn"
	}
	// Ctrl-C terminates the program rather than waiting out its deadline.
	cfg.Limits.CancelOnDisconnect = true
	if err := setupLogging(cfg, false); err != nil {
		return err
	}
	defer func() { _ = clog.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = svc.close(context.Background()) }()

	res, err := svc.coordinator.Run(ctx, bridge.Request{Args: args, Timeout: execTimeout})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	if isTerminal(out) {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if code := exitCodeFor(res); code != 0 {
		return NewExitCodeError(code)
	}
	return nil
}

// isTerminal reports whether w is a terminal, so output meant for a person
// can be indented while pipes get one compact JSON line.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// exitCodeFor maps a result onto the process exit code for exec.
func exitCodeFor(res bridge.Result) int {
	switch res.Outcome {
	case bridge.Completed:
		return *res.ExitCode
	case bridge.TimedOut:
		return exitTimedOut
	case bridge.Rejected:
		return exitRejected
	default:
		return exitFailed
	}
}
