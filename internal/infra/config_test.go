package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.PartialCoverageMinPct != 70 || cfg.Engine.CacheStaleAfter != 6*time.Hour {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.MaxRecordsLimit != 250000 || cfg.Engine.Locale != "pt-BR" {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.Backend.MaxAttempts != 3 || cfg.Poller.Interval != 5*time.Minute {
		t.Fatalf("backend = %+v poller = %+v", cfg.Backend, cfg.Poller)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENGINE_PARTIAL_COVERAGE_MIN_PCT", "80")
	t.Setenv("BACKEND_BASE_URL", "http://backend:9000")
	t.Setenv("AUTH_PUBLIC_KEY_DATA", "pem")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.PartialCoverageMinPct != 80 {
		t.Fatalf("PartialCoverageMinPct = %d, want 80", cfg.Engine.PartialCoverageMinPct)
	}
	if cfg.Backend.BaseURL != "http://backend:9000" {
		t.Fatalf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if string(cfg.Auth.PublicKey) != "pem" {
		t.Fatalf("PublicKey = %q", cfg.Auth.PublicKey)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(LoggerConfig{Level: "debug", Format: "console"}); err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if _, err := NewLogger(LoggerConfig{Level: "loud"}); err == nil {
		t.Fatalf("bad level accepted")
	}
}
