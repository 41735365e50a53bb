package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// validLogLevels defines the allowed log level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that all fields of cfg contain usable values. It validates:
//   - server.listen is host:port or :port with a port of 1-65535
//   - every duration string parses and is positive (admission_wait may be 0)
//   - default_timeout does not exceed max_timeout
//   - counts and sizes are positive, rate_limit and max_request_bytes
//     non-negative
//   - a program path or name is configured
//   - env names are non-empty and contain no '='
//   - log.level is one of: debug, info, warn, error (if non-empty)
//
// Returns nil if the config is valid, or an error naming the invalid field.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateProgram(&cfg.Program); err != nil {
		return err
	}
	if err := validateEnv(&cfg.Env); err != nil {
		return err
	}
	if err := validateLimits(&cfg.Limits); err != nil {
		return err
	}
	if cfg.Log.Level != "" && !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("log.level: invalid level %q, must be one of: debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	if s.Listen == "" {
		return fmt.Errorf("server.listen: must be set")
	}
	if err := validateListenAddr(s.Listen, "server.listen"); err != nil {
		return err
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit: must be non-negative, got %d", s.RateLimit)
	}
	if s.MaxRequestBytes < 0 {
		return fmt.Errorf("server.max_request_bytes: must be non-negative, got %d", s.MaxRequestBytes)
	}
	if s.ShutdownTimeout != "" {
		if err := validatePositiveDuration(s.ShutdownTimeout, "server.shutdown_timeout"); err != nil {
			return err
		}
	}
	return nil
}

func validateProgram(p *ProgramConfig) error {
	if p.Path == "" && p.Name == "" {
		return fmt.Errorf("program: path or name must be set")
	}
	if strings.ContainsRune(p.Name, '/') {
		return fmt.Errorf("program.name: %q must be a bare name, use program.path for a path", p.Name)
	}
	for i, s := range p.Search {
		if s == "" {
			return fmt.Errorf("program.search[%d]: empty path", i)
		}
	}
	return nil
}

func validateEnv(e *EnvConfig) error {
	for i, name := range e.Allow {
		if err := validateEnvName(strings.TrimSuffix(name, "*"), fmt.Sprintf("env.allow[%d]", i)); err != nil {
			return err
		}
	}
	for name := range e.Set {
		if err := validateEnvName(name, "env.set"); err != nil {
			return err
		}
	}
	return nil
}

func validateEnvName(name, field string) error {
	if name == "" {
		return fmt.Errorf("%s: empty variable name", field)
	}
	if strings.ContainsAny(name, "=\x00") {
		return fmt.Errorf("%s: invalid variable name %q", field, name)
	}
	return nil
}

func validateLimits(l *LimitsConfig) error {
	if l.Capacity < 1 {
		return fmt.Errorf("limits.capacity: must be at least 1, got %d", l.Capacity)
	}
	if l.AdmissionWait != "" {
		if err := validateDuration(l.AdmissionWait, "limits.admission_wait"); err != nil {
			return err
		}
		if l.AdmissionWaitDuration() < 0 {
			return fmt.Errorf("limits.admission_wait: must be non-negative, got %s", l.AdmissionWait)
		}
	}
	for _, d := range []struct{ value, field string }{
		{l.DefaultTimeout, "limits.default_timeout"},
		{l.MaxTimeout, "limits.max_timeout"},
		{l.KillGrace, "limits.kill_grace"},
	} {
		if d.value == "" {
			return fmt.Errorf("%s: must be set", d.field)
		}
		if err := validatePositiveDuration(d.value, d.field); err != nil {
			return err
		}
	}
	if l.DefaultTimeoutDuration() > l.MaxTimeoutDuration() {
		return fmt.Errorf("limits.default_timeout: %s exceeds limits.max_timeout %s", l.DefaultTimeout, l.MaxTimeout)
	}
	if l.MaxOutputBytes < 1 {
		return fmt.Errorf("limits.max_output_bytes: must be at least 1, got %d", l.MaxOutputBytes)
	}
	if l.MaxArgs < 1 {
		return fmt.Errorf("limits.max_args: must be at least 1, got %d", l.MaxArgs)
	}
	if l.MaxArgLen < 1 {
		return fmt.Errorf("limits.max_arg_len: must be at least 1, got %d", l.MaxArgLen)
	}
	return nil
}

// splitListen splits a listen address at its last colon and parses the port.
func splitListen(addr string) (string, int, error) {
	colonIdx := strings.LastIndex(addr, ":")
	if colonIdx == -1 {
		return "", 0, fmt.Errorf("invalid format %q, expected host:port or :port", addr)
	}
	portStr := addr[colonIdx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q in %q", portStr, addr)
	}
	return addr[:colonIdx], port, nil
}

// validateListenAddr validates a listen address in "host:port" or ":port" format.
func validateListenAddr(addr, field string) error {
	_, port, err := splitListen(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s: invalid port number %d, must be 1-65535", field, port)
	}
	return nil
}

// validateDuration validates that a duration string can be parsed by time.ParseDuration.
func validateDuration(d, field string) error {
	_, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, d)
	}
	return nil
}

func validatePositiveDuration(d, field string) error {
	if err := validateDuration(d, field); err != nil {
		return err
	}
	if v, _ := time.ParseDuration(d); v <= 0 {
		return fmt.Errorf("%s: must be positive, got %s", field, d)
	}
	return nil
}
