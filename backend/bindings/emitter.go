package bindings

import (
	"context"
	"sync"

	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/satsarcade/sats-arcade/internal/wallet"
)

// Runtime events pushed to the frontend.
const (
	EventSession = "wallet:session"
	EventError   = "wallet:error"
)

// ErrorEvent is the payload of EventError.
type ErrorEvent struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// wailsEmitter bridges manager snapshots to Wails runtime events. Events
// raised before Startup are dropped.
type wailsEmitter struct {
	mu   sync.RWMutex
	ctx  context.Context
	emit func(ctx context.Context, name string, data ...interface{})
}

func newWailsEmitter() *wailsEmitter {
	return &wailsEmitter{emit: wruntime.EventsEmit}
}

func (e *wailsEmitter) setContext(ctx context.Context) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
}

func (e *wailsEmitter) send(name string, data interface{}) {
	e.mu.RLock()
	ctx := e.ctx
	e.mu.RUnlock()
	if ctx == nil {
		return
	}
	e.emit(ctx, name, data)
}

func (e *wailsEmitter) EmitSession(snap wallet.Snapshot) {
	e.send(EventSession, viewOf(snap))
}

func (e *wailsEmitter) EmitError(err error) {
	if err == nil {
		return
	}
	e.send(EventError, ErrorEvent{Kind: string(wallet.KindOf(err)), Message: err.Error()})
}
