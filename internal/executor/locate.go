package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Locate resolves the wrapped program to an absolute executable path.
//
// Resolution order:
//  1. path, if non-empty (must exist and be executable; no fallback)
//  2. name looked up in PATH
//  3. each entry of search, in order
func Locate(path, name string, search []string) (string, error) {
	if path != "" {
		if err := checkExecutable(path); err != nil {
			return "", fmt.Errorf("program %s: %w", path, err)
		}
		return filepath.Abs(path)
	}

	if name != "" {
		if found, err := exec.LookPath(name); err == nil {
			return filepath.Abs(found)
		}
	}

	for _, candidate := range search {
		if checkExecutable(candidate) == nil {
			return filepath.Abs(candidate)
		}
	}

	return "", fmt.Errorf("%w: %q not in PATH or any of %d search locations", ErrProgramNotFound, name, len(search))
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrProgramNotFound
		}
		return err
	}
	if info.IsDir() {
		return errors.New("is a directory")
	}
	if info.Mode().Perm()&0o111 == 0 {
		return errors.New("not executable")
	}
	return nil
}

// Probe runs the program once with args (typically "--version") and returns
// the first non-empty line it printed on stdout, or stderr if stdout was
// empty.
func (inv *Invoker) Probe(ctx context.Context, args []string, timeout time.Duration) (string, error) {
	run := inv.Invoke(ctx, args, timeout)
	switch run.State {
	case StateStartFailed:
		return "", fmt.Errorf("probe %s: %w", inv.cfg.Program, run.Err)
	case StateKilled:
		return "", fmt.Errorf("probe %s: timed out after %s", inv.cfg.Program, timeout)
	}
	if run.ExitCode != 0 {
		return "", fmt.Errorf("probe %s: exit status %d: %s", inv.cfg.Program, run.ExitCode, firstLine(run.Stderr.Data))
	}
	if line := firstLine(run.Stdout.Data); line != "" {
		return line, nil
	}
	return firstLine(run.Stderr.Data), nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
