package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Idempotency.TTL != 24*time.Hour {
		t.Errorf("idempotency ttl = %s", cfg.Idempotency.TTL)
	}
	if cfg.Provider.Breaker.ErrorThresholdPercentage != 50 || cfg.Provider.Breaker.ResetTimeout != 30*time.Second {
		t.Errorf("breaker = %+v", cfg.Provider.Breaker)
	}
	if cfg.Protocols.ReadSource != "mysql" {
		t.Errorf("read source = %q", cfg.Protocols.ReadSource)
	}
	if cfg.Provider.Timeout >= cfg.Provider.Breaker.Timeout {
		t.Errorf("provider timeout %s not below breaker timeout %s", cfg.Provider.Timeout, cfg.Provider.Breaker.Timeout)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "dispatch:\n  concurrency: 9\nprotocols:\n  read_source: clickhouse\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WEBHOOK_PROVIDER_BASE_URL", "http://provider.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dispatch.Concurrency != 9 {
		t.Errorf("concurrency = %d", cfg.Dispatch.Concurrency)
	}
	if cfg.Protocols.ReadSource != "clickhouse" {
		t.Errorf("read source = %q", cfg.Protocols.ReadSource)
	}
	if cfg.Provider.BaseURL != "http://provider.test" {
		t.Errorf("base url = %q", cfg.Provider.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	bad := cfg
	bad.Provider.Breaker.ErrorThresholdPercentage = 0
	if bad.Validate() == nil {
		t.Error("threshold 0 must be rejected")
	}

	bad = cfg
	bad.Provider.Timeout = bad.Provider.Breaker.Timeout
	if bad.Validate() == nil {
		t.Error("provider timeout equal to breaker timeout must be rejected")
	}

	bad = cfg
	bad.Protocols.ReadSource = "postgres"
	if bad.Validate() == nil {
		t.Error("unknown read source must be rejected")
	}
}
