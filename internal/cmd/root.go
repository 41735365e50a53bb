// Package cmd implements the CLI commands for cmdbridge.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xdg/cmdbridge/internal/version"
)

// Persistent flags shared by every subcommand.
var (
	configPath string
	debugLog   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cmdbridge",
	Short: "HTTP bridge to a single command-line program",
	Long: `cmdbridge runs one configured command-line program on behalf of HTTP
clients. Each POST /command starts the program once as a child process with
the client's arguments, passed directly without a shell, and returns its exit
code and captured output as JSON.

Concurrency is bounded: requests beyond capacity are rejected rather than
queued indefinitely, and every execution is killed at its deadline.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cmdbridge/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")
	rootCmd.SetVersionTemplate("cmdbridge " + version.Full() + "\n")
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}
