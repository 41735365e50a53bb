package config

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// DefaultConfig returns a Config with all defaults populated.
//
// The environment allow-list is deliberately short: the program sees only
// what it needs to locate itself and format output, never the bridge's
// credentials or tokens.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":5000",
			RateLimit:       0,
			MaxRequestBytes: 1 << 20,
			ShutdownTimeout: "30s",
		},
		Program: ProgramConfig{
			Name: "tito",
			Search: []string{
				"/app/venv/bin/tito",
				"~/.local/bin/tito",
				"/usr/local/bin/tito",
			},
			VersionArgs: []string{"--version"},
		},
		Env: EnvConfig{
			Allow: []string{
				"PATH",
				"HOME",
				"LANG",
				"LC_*",
				"TZ",
				"TMPDIR",
				"VIRTUAL_ENV",
			},
		},
		Limits: LimitsConfig{
			Capacity:        4,
			AdmissionWait:   "100ms",
			DefaultTimeout:  "60s",
			MaxTimeout:      "10m",
			KillGrace:       "2s",
			MaxOutputBytes:  1 << 20,
			MaxArgs:         64,
			MaxArgLen:       4096,
			RejectShellMeta: boolPtr(true),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
