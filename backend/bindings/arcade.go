package bindings

import (
	"context"

	"github.com/satsarcade/sats-arcade/internal/arcade"
)

// ScoreResult is returned by RecordScore.
type ScoreResult struct {
	HighScore int  `json:"highScore"`
	NewRecord bool `json:"newRecord"`
}

// ArcadeModule exposes ship selection and high scores, gated on the wallet
// session owned by a WalletModule.
type ArcadeModule struct {
	ctx     context.Context
	service *arcade.Service
}

func NewArcadeModule(w *WalletModule) *ArcadeModule {
	return &ArcadeModule{service: arcade.NewService(w.store, w.manager)}
}

func (a *ArcadeModule) Startup(ctx context.Context) {
	a.ctx = ctx
}

func (a *ArcadeModule) Ships() []arcade.Ship {
	return arcade.Ships()
}

func (a *ArcadeModule) GetProfile() (arcade.Profile, error) {
	return a.service.Profile()
}

func (a *ArcadeModule) SelectShip(id string) (arcade.Ship, error) {
	return a.service.SelectShip(id)
}

func (a *ArcadeModule) RecordScore(score int) (ScoreResult, error) {
	best, record, err := a.service.RecordScore(score)
	if err != nil {
		return ScoreResult{}, err
	}
	return ScoreResult{HighScore: best, NewRecord: record}, nil
}
