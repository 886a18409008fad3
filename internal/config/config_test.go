package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != 8080 { t.Fatalf("port %d, want 8080", cfg.Port) }
	if cfg.AuthMode != "dev" { t.Fatalf("auth mode %q, want dev", cfg.AuthMode) }
	if cfg.SimTick() != 3*time.Second { t.Fatalf("sim tick %v", cfg.SimTick()) }
	if cfg.AnalyticsTick() != 5*time.Second { t.Fatalf("analytics tick %v", cfg.AnalyticsTick()) }
	if cfg.Addr() != ":8080" { t.Fatalf("addr %q", cfg.Addr()) }
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fzclean.yaml")
	body := "port: 9090\nauth_mode: hmac\nsim_tick_ms: 1000\nredis_url: redis://yaml:6379\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REDIS_URL", "redis://env:6379")

	cfg := Load()
	if cfg.Port != 9090 { t.Fatalf("port %d, want 9090 from yaml", cfg.Port) }
	if cfg.AuthMode != "hmac" { t.Fatalf("auth mode %q, want hmac", cfg.AuthMode) }
	if cfg.SimTick() != time.Second { t.Fatalf("sim tick %v, want 1s", cfg.SimTick()) }
	if cfg.RedisURL != "redis://env:6379" {
		t.Fatalf("redis url %q, env must win over yaml", cfg.RedisURL)
	}
}

func TestLoadBadNumberKeepsDefault(t *testing.T) {
	t.Setenv("RATE_RPS", "not-a-number")
	cfg := Load()
	if cfg.RateRPS != 50 { t.Fatalf("rate rps %d, want default 50", cfg.RateRPS) }
}
