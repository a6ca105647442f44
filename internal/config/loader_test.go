package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadConfig_Integration writes a temp config file, sets an env
// override, loads it, and checks file values, defaults, and env
// precedence all land where expected.
func TestLoadConfig_Integration(t *testing.T) {
	yamlContent := []byte(`
agent:
  log_level: "warn"
  data_dir: "/tmp/openlock_data"

security:
  integrity:
    check_interval: "5s"
  procguard:
    enable: true
    allowlist:
      - "/opt/exam/helper"

network:
  transport_mode: "gmtls"
`)

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "openlock_test.yaml")
	if err := os.WriteFile(tmpFile, yamlContent, 0644); err != nil {
		t.Fatalf("failed to create temp config file: %v", err)
	}

	// security.integrity.detect_vm -> OPENLOCK_SECURITY_INTEGRITY_DETECT_VM
	os.Setenv("OPENLOCK_SECURITY_INTEGRITY_DETECT_VM", "false")
	defer os.Unsetenv("OPENLOCK_SECURITY_INTEGRITY_DETECT_VM")

	if err := LoadConfig(tmpFile); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	cfg := Get()

	if cfg.Agent.LogLevel != "warn" {
		t.Errorf("expected Agent.LogLevel 'warn', got %q", cfg.Agent.LogLevel)
	}
	if cfg.Security.ProcGuard.CheckInterval != 1*time.Second {
		t.Errorf("expected ProcGuard.CheckInterval default 1s, got %v", cfg.Security.ProcGuard.CheckInterval)
	}
	if cfg.Security.Integrity.CheckInterval != 5*time.Second {
		t.Errorf("expected Integrity.CheckInterval 5s, got %v", cfg.Security.Integrity.CheckInterval)
	}
	if len(cfg.Security.ProcGuard.Allowlist) != 1 || cfg.Security.ProcGuard.Allowlist[0] != "/opt/exam/helper" {
		t.Errorf("allowlist parsing failed, got %v", cfg.Security.ProcGuard.Allowlist)
	}
	if cfg.Network.TransportMode != "gmtls" {
		t.Errorf("expected TransportMode 'gmtls', got %q", cfg.Network.TransportMode)
	}
	if cfg.Security.Integrity.DetectVM != false {
		t.Errorf("expected env override to disable DetectVM, got %v", cfg.Security.Integrity.DetectVM)
	}
}
