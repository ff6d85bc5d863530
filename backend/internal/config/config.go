// Package config loads runtime settings from SATS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const Prefix = "SATS"

// Config contains all configuration parameters for the application.
type Config struct {
	// Store selects the session store backend: memory, sqlite or keyring.
	Store          string `envconfig:"STORE" default:"sqlite"`
	DataDir        string `envconfig:"DATA_DIR"`
	KeyringService string `envconfig:"KEYRING_SERVICE" default:"sats-arcade"`

	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	SettleDelay  time.Duration `envconfig:"SETTLE_DELAY" default:"1s"`
	CallTimeout  time.Duration `envconfig:"CALL_TIMEOUT" default:"10s"`
	ConfirmSends bool          `envconfig:"CONFIRM_SENDS" default:"true"`

	// Provider selects the wallet bridge: script (JS wallet) or mempool (watch-only).
	Provider     string `envconfig:"PROVIDER" default:"script"`
	WalletScript string `envconfig:"WALLET_SCRIPT"`
	MempoolURL   string `envconfig:"MEMPOOL_URL"`
	WatchAddress string `envconfig:"WATCH_ADDRESS"`
	WatchChain   string `envconfig:"WATCH_CHAIN" default:"BITCOIN_MAINNET"`

	APIPort  int    `envconfig:"API_PORT" default:"17888"`
	APIToken string `envconfig:"API_TOKEN"`
}

const (
	StoreMemory  = "memory"
	StoreSQLite  = "sqlite"
	StoreKeyring = "keyring"

	ProviderScript  = "script"
	ProviderMempool = "mempool"
)

// Load reads the environment and fills defaults that depend on the host.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return cfg, nil
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(base, "sats-arcade"), nil
}

// Validate rejects unknown enum values and non-positive durations.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreKeyring:
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	switch c.Provider {
	case ProviderScript:
	case ProviderMempool:
		if strings.TrimSpace(c.WatchAddress) == "" {
			return fmt.Errorf("config: %s_WATCH_ADDRESS is required for the mempool provider", Prefix)
		}
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.PollInterval <= 0 || c.SettleDelay <= 0 || c.CallTimeout <= 0 {
		return fmt.Errorf("config: durations must be positive")
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("config: invalid API port %d", c.APIPort)
	}
	return nil
}

// SessionDBPath is the SQLite file for the sqlite store backend.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// KeyringFallbackPath is the JSON file used when no OS keyring is available.
func (c *Config) KeyringFallbackPath() string {
	return filepath.Join(c.DataDir, "session_fallback.json")
}

// TransfersDBPath is the SQLite file for transfer history.
func (c *Config) TransfersDBPath() string {
	return filepath.Join(c.DataDir, "transfers.db")
}
