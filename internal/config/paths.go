package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xdg/cmdbridge/internal/pathutil"
)

// Dir returns the cmdbridge configuration directory path.
// By default, this is ~/.config/cmdbridge/. If the XDG_CONFIG_HOME
// environment variable is set, it uses $XDG_CONFIG_HOME/cmdbridge/ instead.
// The returned path always has a trailing slash.
func Dir() string {
	return pathutil.XDGDir("XDG_CONFIG_HOME", "~/.config", "cmdbridge") + "/"
}

// DefaultPath returns the full path to the default configuration file.
// This is Dir() + "config.yaml".
func DefaultPath() string {
	return Dir() + "config.yaml"
}

// ensureParent creates the directory holding path with 0700 permissions.
func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return nil
}
