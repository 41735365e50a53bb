// Package pathutil resolves user-relative paths: ~ expansion and the XDG
// base directories cmdbridge keeps its files under.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading ~ in path with the user's home directory.
// If the home directory cannot be determined, the path is returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// XDGDir returns the application directory under an XDG base directory:
// $env/app when env is set and non-empty, otherwise fallback/app. Both the
// variable's value and fallback may start with ~.
//
//	XDGDir("XDG_STATE_HOME", "~/.local/state", "cmdbridge")
func XDGDir(env, fallback, app string) string {
	base := os.Getenv(env)
	if base == "" {
		base = fallback
	}
	return filepath.Join(ExpandHome(base), app)
}
