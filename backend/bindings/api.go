package bindings

import (
	"context"

	"github.com/satsarcade/sats-arcade/internal/api"
)

// ServeAPI runs the loopback HTTP API over the bound modules until ctx is
// cancelled. A zero APIPort disables it.
func ServeAPI(ctx context.Context, cfg *Config, w *WalletModule, a *ArcadeModule) error {
	if cfg.APIPort == 0 {
		return nil
	}
	srv := api.NewServer(w.manager, a.service, api.Options{Token: cfg.APIToken})
	return srv.ListenAndServe(ctx, cfg.APIPort)
}
