package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/cmdbridge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage cmdbridge's configuration.

The configuration file is stored at ~/.config/cmdbridge/config.yaml
(or $XDG_CONFIG_HOME/cmdbridge/config.yaml if XDG_CONFIG_HOME is set),
unless --config names another file.

Use the subcommands to view, edit, or initialize the configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective config",
	Long: `Print the effective configuration as YAML, after defaults and the PORT
and CMDBRIDGE_PROGRAM environment overrides are applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit config in $EDITOR",
	Long: `Open the configuration file in your editor.

The editor is determined by the EDITOR environment variable, falling back to vi.
If the configuration file doesn't exist, a default one is created first.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Long:  `Print the path to the configuration file.`,
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default config file",
	Long: `Create a fully-commented configuration file with all default values.
If the file already exists, this command does nothing.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

// effectiveConfigPath is --config or the default location.
func effectiveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	if err := config.Edit(effectiveConfigPath()); err != nil {
		return fmt.Errorf("failed to edit config: %w", err)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) {
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), effectiveConfigPath())
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := effectiveConfigPath()

	err := config.WriteDefault(path)
	if errors.Is(err, config.ErrExists) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at: %s\n", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created default config at: %s\n", path)
	return nil
}
