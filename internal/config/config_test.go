package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigYAML = `
app:
  name: tick-replay
  environment: development
  log_level: debug
database:
  host: localhost
  port: 5432
  name: market
  user: replay
  password: ${TEST_DB_PASSWORD}
  ssl_mode: disable
  max_connections: 5
cache:
  local_max_entries: 32
  remote_address: localhost:6379
  remote_ttl_seconds: 600
backtest:
  initial_capital: "10000"
  commission_rate: "0.001"
  default_symbol: BTCUSDT
  default_count: 5000
  default_strategy: sma
server:
  port: 8080
  health_port: 8081
  run_rate_per_second: 2
  run_rate_burst: 4
  shutdown_timeout_ms: 5000
metrics:
  enabled: true
  port: 9090
  path: /metrics
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret-pw")
	path := writeTestConfig(t, testConfigYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Database.Password != "secret-pw" {
		t.Fatalf("expected env expansion, got %q", cfg.Database.Password)
	}
	if cfg.Cache.LocalMaxEntries != 32 {
		t.Fatalf("unexpected local cache size: %d", cfg.Cache.LocalMaxEntries)
	}
	if !cfg.Cache.RemoteEnabled() {
		t.Fatal("expected remote cache to be enabled")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadCommission(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "x")
	path := writeTestConfig(t, testConfigYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.Backtest.CommissionRate = "1.5"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation failure for commission rate >= 1")
	}

	cfg.Backtest.CommissionRate = "abc"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation failure for non-decimal commission rate")
	}
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "x")
	path := writeTestConfig(t, testConfigYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.App.Environment = "qa"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation failure for unknown environment")
	}
}
