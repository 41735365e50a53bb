// Package config provides the configuration types for cmdbridge. These
// types map to a single YAML file, by default
// ~/.config/cmdbridge/config.yaml.
package config

import "time"

// Config is the top-level cmdbridge configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Program ProgramConfig `yaml:"program,omitempty"`
	Env     EnvConfig     `yaml:"env,omitempty"`
	Limits  LimitsConfig  `yaml:"limits,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Listen          string `yaml:"listen,omitempty"`
	RateLimit       int    `yaml:"rate_limit,omitempty"` // requests per minute, 0 disables
	MaxRequestBytes int64  `yaml:"max_request_bytes,omitempty"`
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
}

// ProgramConfig identifies the wrapped program. Path wins when set;
// otherwise Name is looked up on PATH and then in each Search entry.
type ProgramConfig struct {
	Path        string   `yaml:"path,omitempty"`
	Name        string   `yaml:"name,omitempty"`
	Search      []string `yaml:"search,omitempty"`
	Workdir     string   `yaml:"workdir,omitempty"`
	VersionArgs []string `yaml:"version_args,omitempty"`
}

// EnvConfig controls the environment passed to the program. Allow lists
// variable names copied from the bridge's own environment (a trailing *
// matches a prefix); Set adds fixed values that override copied ones.
type EnvConfig struct {
	Allow []string          `yaml:"allow,omitempty"`
	Set   map[string]string `yaml:"set,omitempty"`
}

// LimitsConfig bounds executions.
type LimitsConfig struct {
	Capacity           int    `yaml:"capacity,omitempty"`
	AdmissionWait      string `yaml:"admission_wait,omitempty"`
	DefaultTimeout     string `yaml:"default_timeout,omitempty"`
	MaxTimeout         string `yaml:"max_timeout,omitempty"`
	KillGrace          string `yaml:"kill_grace,omitempty"`
	MaxOutputBytes     int    `yaml:"max_output_bytes,omitempty"`
	MaxArgs            int    `yaml:"max_args,omitempty"`
	MaxArgLen          int    `yaml:"max_arg_len,omitempty"`
	RejectShellMeta    *bool  `yaml:"reject_shell_meta,omitempty"`
	CancelOnDisconnect bool   `yaml:"cancel_on_disconnect,omitempty"`
}

// LogConfig contains logging settings. An empty File logs to stderr.
type LogConfig struct {
	File      string `yaml:"file,omitempty"`
	Level     string `yaml:"level,omitempty"`
	AuditFile string `yaml:"audit_file,omitempty"`
}

// AdmissionWaitDuration returns the parsed admission wait. The value is
// assumed to have passed Validate; an unparseable string yields zero.
func (l LimitsConfig) AdmissionWaitDuration() time.Duration {
	return parseDurationOr(l.AdmissionWait, 0)
}

// DefaultTimeoutDuration returns the parsed default timeout.
func (l LimitsConfig) DefaultTimeoutDuration() time.Duration {
	return parseDurationOr(l.DefaultTimeout, 0)
}

// MaxTimeoutDuration returns the parsed maximum timeout.
func (l LimitsConfig) MaxTimeoutDuration() time.Duration {
	return parseDurationOr(l.MaxTimeout, 0)
}

// KillGraceDuration returns the parsed kill grace period.
func (l LimitsConfig) KillGraceDuration() time.Duration {
	return parseDurationOr(l.KillGrace, 0)
}

// ShellMetaRejected reports whether shell metacharacters are refused.
// Unset means true.
func (l LimitsConfig) ShellMetaRejected() bool {
	return l.RejectShellMeta == nil || *l.RejectShellMeta
}

// ShutdownTimeoutDuration returns the parsed graceful shutdown timeout.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDurationOr(s.ShutdownTimeout, 0)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
