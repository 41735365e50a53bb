package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xdg/cmdbridge/internal/argv"
	"github.com/xdg/cmdbridge/internal/audit"
	"github.com/xdg/cmdbridge/internal/bridge"
	"github.com/xdg/cmdbridge/internal/clog"
	"github.com/xdg/cmdbridge/internal/config"
	"github.com/xdg/cmdbridge/internal/executor"
)

// versionProbeTimeout bounds the startup `<program> --version` call.
const versionProbeTimeout = 10 * time.Second

// service holds everything a command needs to execute requests.
type service struct {
	cfg         *config.Config
	coordinator *bridge.Coordinator
	closers     []io.Closer
}

// loadConfig loads the file named by --config, or the default one.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogging configures the global logger from cfg and --debug.
func setupLogging(cfg *config.Config, quiet bool) error {
	if err := clog.Configure(clog.Options{
		File:  cfg.Log.File,
		Level: cfg.Log.Level,
		Debug: debugLog,
		Quiet: quiet,
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	return nil
}

// newService locates the program and assembles the coordinator. With probe
// set, the program's version is read once for health reports.
func newService(ctx context.Context, cfg *config.Config, probe bool) (*service, error) {
	program, err := executor.Locate(cfg.Program.Path, cfg.Program.Name, cfg.Program.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to locate program: %w", err)
	}
	clog.Info("program: %s", program)

	inv := executor.NewInvoker(invokerConfig(cfg, program))

	svc := &service{cfg: cfg}

	var auditLogger *audit.Logger
	if cfg.Log.AuditFile != "" {
		f, err := clog.OpenLogFile(cfg.Log.AuditFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		svc.closers = append(svc.closers, f)
		auditLogger = audit.NewLogger(f)
	}

	var programVersion string
	if probe && len(cfg.Program.VersionArgs) > 0 {
		programVersion, err = inv.Probe(ctx, cfg.Program.VersionArgs, versionProbeTimeout)
		if err != nil {
			clog.Warn("version probe failed: %v", err)
		} else {
			clog.Info("program version: %s", programVersion)
		}
	}

	opts := coordinatorOptions(cfg)
	opts.Audit = auditLogger
	opts.Version = programVersion
	svc.coordinator = bridge.New(inv, opts)
	return svc, nil
}

// invokerConfig maps the program, env and limit settings onto the invoker.
func invokerConfig(cfg *config.Config, program string) executor.Config {
	return executor.Config{
		Program:   program,
		Env:       executor.BuildEnv(os.Environ(), cfg.Env.Allow, cfg.Env.Set),
		Dir:       cfg.Program.Workdir,
		KillGrace: cfg.Limits.KillGraceDuration(),
		MaxOutput: cfg.Limits.MaxOutputBytes,
	}
}

// coordinatorOptions maps the limits section onto bridge.Options.
func coordinatorOptions(cfg *config.Config) bridge.Options {
	l := cfg.Limits
	return bridge.Options{
		Capacity:       l.Capacity,
		AdmissionWait:  l.AdmissionWaitDuration(),
		DefaultTimeout: l.DefaultTimeoutDuration(),
		MaxTimeout:     l.MaxTimeoutDuration(),
		Limits: argv.Limits{
			MaxArgs:         l.MaxArgs,
			MaxArgLen:       l.MaxArgLen,
			RejectShellMeta: l.ShellMetaRejected(),
		},
		CancelOnDisconnect: l.CancelOnDisconnect,
	}
}

// close shuts the coordinator down and releases files. Errors are joined.
func (svc *service) close(ctx context.Context) error {
	var errs []error
	if err := svc.coordinator.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("coordinator shutdown: %w", err))
	}
	for _, c := range svc.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
