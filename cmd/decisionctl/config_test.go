package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decision.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRuntimeConfigDefaults(t *testing.T) {
	cfg, err := loadRuntimeConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := defaultRuntimeConfig()
	if cfg.BackendURL != def.BackendURL || cfg.PolicyName != def.PolicyName {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.Loop.Interval != 55*time.Second {
		t.Fatalf("interval = %v", cfg.Loop.Interval)
	}
}

func TestLoadRuntimeConfigOverlaysOnlyDefinedKeys(t *testing.T) {
	cfg, err := loadRuntimeConfig(writeConfig(t, `
backend_url = "http://10.1.0.9:5000"
interval_s = 12.5
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackendURL != "http://10.1.0.9:5000" {
		t.Fatalf("backend_url = %q", cfg.BackendURL)
	}
	if cfg.Loop.Interval != 12500*time.Millisecond {
		t.Fatalf("interval = %v", cfg.Loop.Interval)
	}
	// Keys absent from the file keep their defaults.
	if cfg.PolicyName != "queue_weighted" {
		t.Fatalf("policy = %q", cfg.PolicyName)
	}
	if cfg.Loop.BeaconPoll != 500*time.Millisecond {
		t.Fatalf("beacon_poll = %v", cfg.Loop.BeaconPoll)
	}
}

func TestLoadRuntimeConfigRejectsEmptyBackendURL(t *testing.T) {
	if _, err := loadRuntimeConfig(writeConfig(t, `backend_url = "  "`)); err == nil {
		t.Fatalf("expected error for blank backend_url")
	}
}

func TestLoadRuntimeConfigRejectsNonPositiveInterval(t *testing.T) {
	if _, err := loadRuntimeConfig(writeConfig(t, `interval_s = 0.0`)); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestLoadRuntimeConfigMissingFile(t *testing.T) {
	if _, err := loadRuntimeConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
