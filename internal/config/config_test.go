package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected default addr %q", cfg.Addr)
	}
	p := cfg.RiskPolicy()
	if p.ModerateAt != 40 || p.HighAt != 70 || p.VisualOverride != 70 {
		t.Fatalf("unexpected default risk policy %+v", p)
	}
	if cfg.Gateway.TimeoutSeconds != 30 {
		t.Fatalf("unexpected default gateway timeout %d", cfg.Gateway.TimeoutSeconds)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	content := `
addr: ":9090"
sqlite_path: /tmp/vigil.db
gateway:
  endpoint: https://model.internal
  model: gpt-4o
risk:
  moderate_at: 35
  high_at: 65
  visual_override: 70
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("VIGIL_ADDR", ":7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("env must override yaml, got %q", cfg.Addr)
	}
	if cfg.SQLitePath != "/tmp/vigil.db" || cfg.Gateway.Endpoint != "https://model.internal" {
		t.Fatalf("yaml values lost: %+v", cfg)
	}
	if p := cfg.RiskPolicy(); p.ModerateAt != 35 || p.HighAt != 65 {
		t.Fatalf("risk thresholds not applied: %+v", p)
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	content := `
risk:
  moderate_at: 80
  high_at: 40
  visual_override: 70
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for non-monotonic thresholds")
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
}
