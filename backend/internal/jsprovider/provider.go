// Package jsprovider runs a wallet extension script inside a sandboxed goja
// runtime and exposes its global unisat object as a wallet.Provider.
package jsprovider

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/satsarcade/sats-arcade/internal/wallet"
)

//go:embed demo_wallet.js
var DemoWallet string

const (
	scriptInitTimeout = 2 * time.Second
	globalName        = "unisat"
)

type pendingEvent struct {
	event   wallet.Event
	payload wallet.EventPayload
}

// Provider is a wallet.Provider backed by a script-defined unisat object.
type Provider struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	// events emitted by the script while mu is held, dispatched after release.
	pending []pendingEvent

	handlersMu sync.Mutex
	handlers   map[wallet.Event]map[wallet.ListenerID]wallet.Handler
	nextID     wallet.ListenerID
}

var _ wallet.Provider = (*Provider)(nil)

// New evaluates source and returns a provider over the unisat global it
// defines. A script that defines no unisat object yields a provider that
// reports itself as absent.
func New(source string) (*Provider, error) {
	p := &Provider{
		runtime:  goja.New(),
		handlers: map[wallet.Event]map[wallet.ListenerID]wallet.Handler{},
	}
	p.injectGlobals()

	ctx, cancel := context.WithTimeout(context.Background(), scriptInitTimeout)
	defer cancel()
	err := p.run(ctx, func() error {
		if _, err := p.runtime.RunString(source); err != nil {
			return fmt.Errorf("jsprovider: script execution error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewDemo returns a provider running the embedded demo wallet.
func NewDemo() (*Provider, error) {
	return New(DemoWallet)
}

func (p *Provider) injectGlobals() {
	// __emit(event, arg) queues a provider event.
	p.runtime.Set("__emit", func(call goja.FunctionCall) goja.Value {
		ev := wallet.Event(call.Argument(0).String())
		var payload wallet.EventPayload
		switch ev {
		case wallet.EventAccountsChanged:
			payload.Accounts = toStrings(call.Argument(1).Export())
		case wallet.EventNetworkChanged:
			payload.Network = call.Argument(1).String()
		default:
			return goja.Undefined()
		}
		p.pending = append(p.pending, pendingEvent{event: ev, payload: payload})
		return goja.Undefined()
	})

	p.runtime.Set("require", goja.Undefined())
	p.runtime.Set("fetch", goja.Undefined())
	p.runtime.Set("XMLHttpRequest", goja.Undefined())
	p.runtime.Set("eval", goja.Undefined())
	p.runtime.Set("Function", goja.Undefined())
}

// IsPresent reports whether the script defined a unisat object.
func (p *Provider) IsPresent() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.runtime.Get(globalName)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return false
	}
	_, ok := v.(*goja.Object)
	return ok
}

func (p *Provider) RequestAccounts(ctx context.Context) ([]string, error) {
	v, err := p.Call(ctx, "requestAccounts")
	if err != nil {
		return nil, err
	}
	return toStrings(v), nil
}

func (p *Provider) GetAccounts(ctx context.Context) ([]string, error) {
	v, err := p.Call(ctx, "getAccounts")
	if err != nil {
		return nil, err
	}
	return toStrings(v), nil
}

func (p *Provider) GetNetwork(ctx context.Context) (string, error) {
	v, err := p.Call(ctx, "getNetwork")
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

func (p *Provider) GetChain(ctx context.Context) (*wallet.ChainInfo, error) {
	v, err := p.Call(ctx, "getChain")
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	return &wallet.ChainInfo{
		Enum:    wallet.ChainType(toString(m["enum"])),
		Name:    toString(m["name"]),
		Network: toString(m["network"]),
	}, nil
}

func (p *Provider) GetPublicKey(ctx context.Context) (string, error) {
	v, err := p.Call(ctx, "getPublicKey")
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

func (p *Provider) GetBalance(ctx context.Context) (wallet.Balance, error) {
	v, err := p.Call(ctx, "getBalance")
	if err != nil {
		return wallet.Balance{}, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return wallet.Balance{}, fmt.Errorf("getBalance returned %T", v)
	}
	return wallet.Balance{
		Confirmed:   toInt64(m["confirmed"]),
		Unconfirmed: toInt64(m["unconfirmed"]),
		Total:       toInt64(m["total"]),
	}, nil
}

func (p *Provider) SignMessage(ctx context.Context, text string) (string, error) {
	v, err := p.Call(ctx, "signMessage", text)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

func (p *Provider) SendBitcoin(ctx context.Context, address string, amountSats int64) (string, error) {
	v, err := p.Call(ctx, "sendBitcoin", address, amountSats)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

func (p *Provider) Disconnect(ctx context.Context) error {
	_, err := p.Call(ctx, "disconnect")
	return err
}

func (p *Provider) On(event wallet.Event, h wallet.Handler) wallet.ListenerID {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	p.nextID++
	if p.handlers[event] == nil {
		p.handlers[event] = map[wallet.ListenerID]wallet.Handler{}
	}
	p.handlers[event][p.nextID] = h
	return p.nextID
}

func (p *Provider) RemoveListener(event wallet.Event, id wallet.ListenerID) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	delete(p.handlers[event], id)
}

// Listeners returns the number of registered handlers.
func (p *Provider) Listeners() int {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	n := 0
	for _, hs := range p.handlers {
		n += len(hs)
	}
	return n
}

// Call invokes unisat[method](args...) and waits for the returned value or
// promise to settle. Events the script emits during the call are dispatched
// after the runtime is released.
func (p *Provider) Call(ctx context.Context, method string, args ...any) (any, error) {
	var out any
	err := p.run(ctx, func() error {
		obj, err := p.unisat()
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(obj.Get(method))
		if !ok {
			return fmt.Errorf("%s is not supported by this wallet", method)
		}
		jsArgs := make([]goja.Value, len(args))
		for i, a := range args {
			jsArgs[i] = p.runtime.ToValue(a)
		}
		res, err := fn(obj, jsArgs...)
		if err != nil {
			return scriptError(err)
		}
		out, err = p.settle(method, res)
		return err
	})
	p.dispatch()
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) unisat() (*goja.Object, error) {
	v := p.runtime.Get(globalName)
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return nil, errors.New("wallet extension is not available")
	}
	return obj, nil
}

// settle unwraps a promise. Promise jobs run before a top-level call returns,
// so a promise still pending here will never settle.
func (p *Provider) settle(method string, v goja.Value) (any, error) {
	prom, ok := v.Export().(*goja.Promise)
	if !ok {
		return exportValue(v), nil
	}
	switch prom.State() {
	case goja.PromiseStateFulfilled:
		return exportValue(prom.Result()), nil
	case goja.PromiseStateRejected:
		return nil, rejection(prom.Result())
	default:
		return nil, fmt.Errorf("%s did not settle", method)
	}
}

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// rejection turns a rejected value into an error carrying the script's message.
func rejection(v goja.Value) error {
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return errors.New(msg.String())
		}
	}
	if v == nil || goja.IsUndefined(v) {
		return errors.New("request rejected")
	}
	return errors.New(v.String())
}

func scriptError(err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return rejection(ex.Value())
	}
	return err
}

func (p *Provider) dispatch() {
	p.mu.Lock()
	events := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, e := range events {
		p.handlersMu.Lock()
		ids := make([]wallet.ListenerID, 0, len(p.handlers[e.event]))
		for id := range p.handlers[e.event] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		hs := make([]wallet.Handler, 0, len(ids))
		for _, id := range ids {
			hs = append(hs, p.handlers[e.event][id])
		}
		p.handlersMu.Unlock()

		for _, h := range hs {
			h(e.payload)
		}
	}
}

// run executes fn while holding the runtime, interrupting it when ctx ends.
func (p *Provider) run(ctx context.Context, fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runtime.ClearInterrupt()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Interrupt a runaway script execution.
		p.runtime.Interrupt("wallet call cancelled")
		err := <-done
		if err != nil {
			return fmt.Errorf("jsprovider: %w: %v", ctx.Err(), err)
		}
		return ctx.Err()
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := strings.TrimSpace(toString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int64(n)
	default:
		return 0
	}
}
