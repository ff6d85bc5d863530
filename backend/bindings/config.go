package bindings

import "github.com/satsarcade/sats-arcade/internal/config"

// Config is the runtime configuration shared by the bound modules.
type Config = config.Config

// LoadConfig reads SATS_* environment variables and validates them.
func LoadConfig() (*Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
