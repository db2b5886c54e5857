package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing config must not be an error: %v", err)
	}
	if cfg.HTTP.Addr != ":3100" {
		t.Fatalf("unexpected default addr %q", cfg.HTTP.Addr)
	}
	if cfg.ToolTimeout() != 15*time.Second {
		t.Fatalf("unexpected default tool timeout %v", cfg.ToolTimeout())
	}
	if cfg.InterCallDelay() != 500*time.Millisecond {
		t.Fatalf("unexpected default inter-call delay %v", cfg.InterCallDelay())
	}
}

func TestLoadPartialFileBackfillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  addr: ":9000"
viewport:
  width: 1920
  height: 1080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("explicit addr lost: %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ToolTimeoutSeconds != 15 {
		t.Fatalf("tool timeout must default, got %d", cfg.HTTP.ToolTimeoutSeconds)
	}
	if cfg.Viewport.DPR != 1 {
		t.Fatalf("dpr must default, got %v", cfg.Viewport.DPR)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("htttp:\n  addr: \":9000\"\n"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("typoed key must fail loudly")
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok || verr.Path != "logging.level" {
		t.Fatalf("expected logging.level validation error, got %v", err)
	}
}

func TestValidateRejectsZeroViewport(t *testing.T) {
	cfg := Default()
	cfg.Viewport.Width = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for negative viewport")
	}
}
