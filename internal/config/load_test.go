package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_MissingDefaultPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(EnvPort, "")
	t.Setenv(EnvProgram, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Listen != ":5000" {
		t.Errorf("Server.Listen = %q, want %q", cfg.Server.Listen, ":5000")
	}

	// Loading never writes a file; that is config init's job.
	if _, err := os.Stat(filepath.Join(tmpDir, "cmdbridge", "config.yaml")); !os.IsNotExist(err) {
		t.Errorf("Load() should not create a config file, stat err = %v", err)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing explicit path")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_Valid(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvProgram, "")
	path := writeConfig(t, `
server:
  listen: "127.0.0.1:7000"
program:
  path: /usr/bin/env
limits:
  capacity: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:7000" {
		t.Errorf("Server.Listen = %q", cfg.Server.Listen)
	}
	if cfg.Program.Path != "/usr/bin/env" {
		t.Errorf("Program.Path = %q", cfg.Program.Path)
	}
	if cfg.Limits.Capacity != 1 {
		t.Errorf("Limits.Capacity = %d, want 1", cfg.Limits.Capacity)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvPort, "")
	path := writeConfig(t, "limits:\n  default_timeout: 20m\n  max_timeout: 10m\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error")
	}
	if !strings.Contains(err.Error(), "limits.default_timeout") {
		t.Errorf("error = %q, want it to name limits.default_timeout", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := writeConfig(t, "server: [\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "8123")
	t.Setenv(EnvProgram, "/opt/tool")
	path := writeConfig(t, "server:\n  listen: \"0.0.0.0:5000\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Listen != "0.0.0.0:8123" {
		t.Errorf("Server.Listen = %q, want %q", cfg.Server.Listen, "0.0.0.0:8123")
	}
	if cfg.Program.Path != "/opt/tool" {
		t.Errorf("Program.Path = %q, want %q", cfg.Program.Path, "/opt/tool")
	}
}

func TestLoad_InvalidPortFromEnv(t *testing.T) {
	t.Setenv(EnvPort, "http")
	path := writeConfig(t, "")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for non-numeric PORT")
	}
}

func TestLoad_ExpandsPaths(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvProgram, "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("os.UserHomeDir() error = %v", err)
	}
	path := writeConfig(t, `
program:
  path: ~/bin/tool
  search: [~/a/tool]
  workdir: ~/work
log:
  file: ~/logs/cmdbridge.log
  audit_file: ~/logs/audit.log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	checks := map[string]string{
		"program.path":    cfg.Program.Path,
		"program.search":  cfg.Program.Search[0],
		"program.workdir": cfg.Program.Workdir,
		"log.file":        cfg.Log.File,
		"log.audit_file":  cfg.Log.AuditFile,
	}
	for field, got := range checks {
		if !strings.HasPrefix(got, home+"/") {
			t.Errorf("%s = %q, want it under %q", field, got, home)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name   string
		listen string
		env    map[string]string
		want   string
	}{
		{"no override", ":5000", nil, ":5000"},
		{"port only", ":5000", map[string]string{EnvPort: "9000"}, ":9000"},
		{"keeps host", "127.0.0.1:5000", map[string]string{EnvPort: "9000"}, "127.0.0.1:9000"},
		{"empty port ignored", ":5000", map[string]string{EnvPort: ""}, ":5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.Listen = tt.listen
			applyEnv(cfg, func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			if cfg.Server.Listen != tt.want {
				t.Errorf("Listen = %q, want %q", cfg.Server.Listen, tt.want)
			}
		})
	}
}
