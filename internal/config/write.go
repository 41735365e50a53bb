package config

import (
	"errors"
	"fmt"
	"os"
)

// ErrExists is returned by WriteDefault when the file is already present.
var ErrExists = errors.New("config file already exists")

// WriteDefault creates a commented default configuration file at path.
// It refuses to overwrite an existing file, returning ErrExists. The parent
// directory is created if needed and the file is written with 0600
// permissions.
func WriteDefault(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := ensureParent(path); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// defaultConfigTemplate mirrors DefaultConfig with explanatory comments.
const defaultConfigTemplate = `# cmdbridge configuration
# Unknown keys are rejected. Durations use Go syntax: 500ms, 30s, 10m.

server:
  # Listen address. The PORT environment variable overrides the port.
  listen: ":5000"
  # Requests per minute across all clients; 0 disables the limit.
  rate_limit: 0
  # Largest accepted POST /command body.
  max_request_bytes: 1048576
  # How long serve waits for running commands on SIGINT/SIGTERM.
  shutdown_timeout: 30s

program:
  # Absolute path to the wrapped program. When set, no lookup is done.
  # CMDBRIDGE_PROGRAM overrides this.
  # path: /app/venv/bin/tito
  # Otherwise name is looked up on PATH, then in each search entry.
  name: tito
  search:
    - /app/venv/bin/tito
    - ~/.local/bin/tito
    - /usr/local/bin/tito
  # Working directory for every invocation; empty keeps the bridge's own.
  # workdir: /app
  # Arguments for the one-shot version probe shown by /health.
  # An empty list disables the probe.
  version_args: ["--version"]

env:
  # Variables copied from the bridge's environment. A trailing * matches
  # a prefix. Everything else is withheld from the program.
  allow:
    - PATH
    - HOME
    - LANG
    - LC_*
    - TZ
    - TMPDIR
    - VIRTUAL_ENV
  # Fixed values, applied after allow.
  # set:
  #   PYTHONPATH: /app/src

limits:
  # Concurrent executions.
  capacity: 4
  # How long a request may wait for a free slot; 0 rejects at once.
  admission_wait: 100ms
  default_timeout: 60s
  max_timeout: 10m
  # Delay between SIGTERM and SIGKILL once a deadline passes.
  kill_grace: 2s
  # Per-stream capture cap; the rest is drained and discarded.
  max_output_bytes: 1048576
  max_args: 64
  max_arg_len: 4096
  reject_shell_meta: true
  # Terminate the process when the HTTP client disconnects.
  cancel_on_disconnect: false

log:
  # Empty logs to stderr.
  # file: ~/.local/state/cmdbridge/cmdbridge.log
  level: info
  # One line per request; empty disables.
  # audit_file: ~/.local/state/cmdbridge/audit.log
`
