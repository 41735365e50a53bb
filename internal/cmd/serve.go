package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/cmdbridge/internal/clog"
	"github.com/xdg/cmdbridge/internal/config"
	"github.com/xdg/cmdbridge/internal/server"
)

// writeTimeoutSlack is added to max_timeout + kill_grace so a response for
// the longest allowed execution is never cut off.
const writeTimeoutSlack = 10 * time.Second

var (
	serveListen string
	serveQuiet  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP bridge",
	Long: `Start the HTTP server and serve requests until SIGINT or SIGTERM.

On shutdown the listener stops accepting connections and running executions
are terminated; each waiting client still receives its result.

Endpoints:
  GET  /health    liveness and current load
  POST /command   run the program: {"args": [...], "timeout_seconds": n}
  GET  /metrics   Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address, overrides server.listen and PORT")
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "log only to log.file (or the default state log), not stderr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Server.Listen = serveListen
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid --listen: %w", err)
		}
	}
	if err := setupLogging(cfg, serveQuiet); err != nil {
		return err
	}
	defer func() { _ = clog.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, true)
	if err != nil {
		return err
	}

	srv := newServer(cfg, svc)
	if err := srv.Start(); err != nil {
		_ = svc.close(context.Background())
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-ctx.Done()
	clog.Info("shutting down")

	return shutdown(cfg, srv, svc)
}

// newServer builds the HTTP server from the server section. The write
// timeout always outlasts the longest execution the limits allow.
func newServer(cfg *config.Config, svc *service) *server.Server {
	srv := server.New(cfg.Server.Listen, svc.coordinator)
	srv.MaxRequestBytes = cfg.Server.MaxRequestBytes
	srv.RateLimit = cfg.Server.RateLimit
	srv.WriteTimeout = cfg.Limits.MaxTimeoutDuration() + cfg.Limits.KillGraceDuration() + writeTimeoutSlack
	return srv
}

// shutdown stops accepting requests and terminates running executions under
// one deadline, then closes the audit log.
func shutdown(cfg *config.Config, srv *server.Server, svc *service) error {
	timeout := cfg.Server.ShutdownTimeoutDuration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Executions are terminated while the listener drains so in-flight
	// handlers can answer instead of holding Stop until their deadline.
	coordErr := make(chan error, 1)
	go func() { coordErr <- svc.coordinator.Shutdown(ctx) }()

	srvErr := srv.Stop(ctx)
	<-coordErr
	closeErr := svc.close(ctx)

	if srvErr != nil {
		return fmt.Errorf("error during server shutdown: %w", srvErr)
	}
	if closeErr != nil {
		return fmt.Errorf("error during shutdown: %w", closeErr)
	}
	clog.Info("stopped")
	return nil
}
