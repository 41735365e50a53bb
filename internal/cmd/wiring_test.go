package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xdg/cmdbridge/internal/config"
)

func TestCoordinatorOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Limits.Capacity = 7
	cfg.Limits.AdmissionWait = "250ms"
	cfg.Limits.MaxArgs = 3
	f := false
	cfg.Limits.RejectShellMeta = &f

	opts := coordinatorOptions(cfg)
	if opts.Capacity != 7 {
		t.Errorf("Capacity = %d, want 7", opts.Capacity)
	}
	if opts.AdmissionWait != 250*time.Millisecond {
		t.Errorf("AdmissionWait = %s", opts.AdmissionWait)
	}
	if opts.DefaultTimeout != 60*time.Second || opts.MaxTimeout != 10*time.Minute {
		t.Errorf("timeouts = %s/%s", opts.DefaultTimeout, opts.MaxTimeout)
	}
	if opts.Limits.MaxArgs != 3 || opts.Limits.RejectShellMeta {
		t.Errorf("Limits = %+v", opts.Limits)
	}
}

func TestInvokerConfig(t *testing.T) {
	t.Setenv("CMDBRIDGE_TEST_SECRET", "hunter2")
	cfg := config.DefaultConfig()
	cfg.Program.Workdir = "/srv"
	cfg.Env.Set = map[string]string{"PYTHONPATH": "/app"}

	ic := invokerConfig(cfg, "/bin/tool")
	if ic.Program != "/bin/tool" || ic.Dir != "/srv" {
		t.Errorf("config = %+v", ic)
	}
	if ic.KillGrace != 2*time.Second || ic.MaxOutput != 1<<20 {
		t.Errorf("KillGrace = %s, MaxOutput = %d", ic.KillGrace, ic.MaxOutput)
	}
	if got, _ := ic.Env.Get("PYTHONPATH"); got != "/app" {
		t.Errorf("PYTHONPATH = %q, want /app", got)
	}
	if _, ok := ic.Env.Get("CMDBRIDGE_TEST_SECRET"); ok {
		t.Error("variable outside env.allow leaked into the program environment")
	}
}

func TestNewService_ProbeAndAudit(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CMDBRIDGE_PROGRAM", "")
	dir := t.TempDir()
	tool := filepath.Join(dir, "tool.sh")
	script := "#!/bin/sh\nif [ \"$1\" = --version ]; then echo 'tool 1.2.3'; exit 0; fi\necho hi\n"
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Program.Path = tool
	cfg.Log.AuditFile = filepath.Join(dir, "audit.log")

	svc, err := newService(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("newService() error = %v", err)
	}
	h := svc.coordinator.Health()
	if h.Version != "tool 1.2.3" {
		t.Errorf("Version = %q, want %q", h.Version, "tool 1.2.3")
	}
	if h.Program != tool {
		t.Errorf("Program = %q, want %q", h.Program, tool)
	}

	if err := svc.close(context.Background()); err != nil {
		t.Fatalf("close() error = %v", err)
	}
	if _, err := os.Stat(cfg.Log.AuditFile); err != nil {
		t.Errorf("audit file not created: %v", err)
	}
}

func TestNewService_ProbeFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "tool.sh")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\nexit 2\n"), 0o755); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Program.Path = tool

	svc, err := newService(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("newService() error = %v", err)
	}
	defer func() { _ = svc.close(context.Background()) }()
	if v := svc.coordinator.Health().Version; v != "" {
		t.Errorf("Version = %q, want empty after failed probe", v)
	}
}

func TestNewService_MissingProgram(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Program.Path = "/nonexistent/tool"

	_, err := newService(context.Background(), cfg, false)
	if err == nil || !strings.Contains(err.Error(), "locate program") {
		t.Errorf("newService() error = %v, want locate failure", err)
	}
}

func TestNewServer_WriteTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	srv := newServer(cfg, &service{})
	want := 10*time.Minute + 2*time.Second + writeTimeoutSlack
	if srv.WriteTimeout != want {
		t.Errorf("WriteTimeout = %s, want %s", srv.WriteTimeout, want)
	}
	if srv.Addr != ":5000" {
		t.Errorf("Addr = %q", srv.Addr)
	}
}
