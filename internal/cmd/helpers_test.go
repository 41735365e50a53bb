package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xdg/cmdbridge/internal/clog"
)

// runRoot executes the root command with args and returns its stdout. Flag
// state is reset afterwards so tests don't leak into each other.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		clog.Reset()
	})
	err := rootCmd.Execute()
	return stdout.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since cobra keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeTool writes an executable shell script and a config that wraps it.
// It returns the config path.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("CMDBRIDGE_PROGRAM", "")
	dir := t.TempDir()

	tool := filepath.Join(dir, "tool.sh")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := "program:\n" +
		"  path: " + tool + "\n" +
		"  version_args: []\n" +
		"env:\n" +
		"  allow: [PATH]\n" +
		"limits:\n" +
		"  kill_grace: 200ms\n" +
		"  max_output_bytes: 4096\n" +
		"log:\n" +
		"  level: error\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}
