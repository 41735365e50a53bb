package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/cmdbridge/internal/clog"
	"github.com/xdg/cmdbridge/internal/pathutil"
)

// Environment variables that override file settings.
const (
	EnvPort    = "PORT"
	EnvProgram = "CMDBRIDGE_PROGRAM"
)

// Load loads the configuration from path, or from DefaultPath() when path
// is empty. A missing file at the default location yields DefaultConfig();
// a missing file named explicitly is an error. Environment overrides are
// applied after parsing, then the result is validated and every path
// containing ~ is expanded.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	clog.Debug("config: loading %s", path)

	cfg, err := readFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		clog.Debug("config: %s not found, using defaults", path)
		cfg = DefaultConfig()
	case err != nil:
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyEnv(cfg, os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	expandPaths(cfg)
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// applyEnv applies PORT and CMDBRIDGE_PROGRAM. PORT replaces only the port of
// server.listen so a configured bind host is kept.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if port, ok := lookup(EnvPort); ok && port != "" {
		host := ""
		if h, _, err := splitListen(cfg.Server.Listen); err == nil {
			host = h
		}
		cfg.Server.Listen = host + ":" + port
	}
	if prog, ok := lookup(EnvProgram); ok && prog != "" {
		cfg.Program.Path = prog
	}
}

// expandPaths expands ~ to the home directory in all path fields.
func expandPaths(cfg *Config) {
	cfg.Program.Path = pathutil.ExpandHome(cfg.Program.Path)
	cfg.Program.Workdir = pathutil.ExpandHome(cfg.Program.Workdir)
	for i, p := range cfg.Program.Search {
		cfg.Program.Search[i] = pathutil.ExpandHome(p)
	}
	cfg.Log.File = pathutil.ExpandHome(cfg.Log.File)
	cfg.Log.AuditFile = pathutil.ExpandHome(cfg.Log.AuditFile)
}
