package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SATS_DATA_DIR", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreSQLite || cfg.Provider != ProviderScript {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PollInterval != 5*time.Second || cfg.SettleDelay != time.Second || cfg.CallTimeout != 10*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if !cfg.ConfirmSends || cfg.APIPort != 17888 {
		t.Fatalf("unexpected api/send defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SATS_DATA_DIR", dir)
	t.Setenv("SATS_STORE", "Keyring")
	t.Setenv("SATS_POLL_INTERVAL", "250ms")
	t.Setenv("SATS_PROVIDER", "mempool")
	t.Setenv("SATS_WATCH_ADDRESS", "bc1qwatch")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreKeyring || cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.SessionDBPath() != dir+"/session.db" {
		t.Fatalf("unexpected db path %q", cfg.SessionDBPath())
	}
}

func TestValidateRejects(t *testing.T) {
	base := Config{Store: StoreMemory, Provider: ProviderScript, PollInterval: time.Second, SettleDelay: time.Second, CallTimeout: time.Second}
	cases := []func(c *Config){
		func(c *Config) { c.Store = "redis" },
		func(c *Config) { c.Provider = "ledger" },
		func(c *Config) { c.Provider = ProviderMempool },
		func(c *Config) { c.PollInterval = 0 },
		func(c *Config) { c.APIPort = 70000 },
	}
	for i, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("SATS_DATA_DIR", t.TempDir())
	t.Setenv("SATS_SETTLE_DELAY", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
