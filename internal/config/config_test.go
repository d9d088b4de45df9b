package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Metadata.Backend != "sqlite" {
		t.Fatalf("Metadata.Backend = %q, want sqlite", cfg.Metadata.Backend)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropvault.yaml")
	content := []byte("server:\n  port: 9100\n  workers: 8\nmetadata:\n  backend: badger\nstorage:\n  default_quota: \"1Gi\"\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Server.Workers != 8 {
		t.Fatalf("Server.Workers = %d, want 8", cfg.Server.Workers)
	}
	if cfg.Metadata.Backend != "badger" {
		t.Fatalf("Metadata.Backend = %q, want badger", cfg.Metadata.Backend)
	}
	if cfg.Storage.DefaultQuota.Uint64() != 1<<30 {
		t.Fatalf("Storage.DefaultQuota = %d, want %d", cfg.Storage.DefaultQuota.Uint64(), uint64(1)<<30)
	}
}

func TestLoadAppliesProfilingDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profiling.Enabled {
		t.Fatal("Profiling.Enabled = true, want false by default")
	}
	if cfg.Profiling.Endpoint == "" {
		t.Fatal("Profiling.Endpoint should default to a non-empty value")
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		t.Fatal("Profiling.ProfileTypes should default to a non-empty set")
	}
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropvault.yaml")
	if err := os.WriteFile(path, []byte("metadata:\n  backend: mongodb\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unsupported backend")
	}
}
