// Package version provides version information for cmdbridge.
// The Version variable is set at build time via ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current version of cmdbridge.
// Set at build time via: -ldflags "-X github.com/xdg/cmdbridge/internal/version.Version=v1.0.0"
// Defaults to "dev" for development builds.
var Version = "dev"

// Full returns the version with the VCS revision, when the binary was built
// from a checkout, and the Go version.
func Full() string {
	return format(Version, revision(), runtime.Version())
}

func format(v, rev, goVersion string) string {
	if rev != "" {
		v = fmt.Sprintf("%s (%s)", v, rev)
	}
	return fmt.Sprintf("%s %s", v, goVersion)
}

// revision returns the short VCS revision recorded in the build info, with
// a "+dirty" suffix for modified trees.
func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "+dirty"
	}
	return rev
}
