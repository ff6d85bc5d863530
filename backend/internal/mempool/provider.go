package mempool

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/satsarcade/sats-arcade/internal/wallet"
)

// WatchProvider is a read-only wallet.Provider for a single address. It can
// report balances but cannot sign or send.
type WatchProvider struct {
	client *Client
	chain  wallet.Chain

	mu        sync.RWMutex
	address   string
	connected bool
	handlers  map[wallet.Event]map[wallet.ListenerID]wallet.Handler
	nextID    wallet.ListenerID
}

var _ wallet.Provider = (*WatchProvider)(nil)

// NewWatchProvider watches address on chain. The client's BaseURL should point
// at the chain's explorer; see ClientForChain.
func NewWatchProvider(client *Client, chain wallet.Chain, address string) *WatchProvider {
	return &WatchProvider{
		client:   client,
		chain:    chain,
		address:  strings.TrimSpace(address),
		handlers: map[wallet.Event]map[wallet.ListenerID]wallet.Handler{},
	}
}

// ClientForChain builds a client against the chain's mempool explorer.
func ClientForChain(chain wallet.Chain, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = chain.MempoolSpaceURL
	}
	return NewClient(cfg)
}

// IsPresent reports whether an address is configured.
func (w *WatchProvider) IsPresent() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.address != ""
}

func (w *WatchProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.address == "" {
		return nil, nil
	}
	w.connected = true
	return []string{w.address}, nil
}

func (w *WatchProvider) GetAccounts(ctx context.Context) ([]string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.connected || w.address == "" {
		return []string{}, nil
	}
	return []string{w.address}, nil
}

func (w *WatchProvider) GetNetwork(ctx context.Context) (string, error) {
	if w.chain.NetworkType == wallet.NetworkTypeTestnet {
		return "testnet", nil
	}
	return "livenet", nil
}

func (w *WatchProvider) GetChain(ctx context.Context) (*wallet.ChainInfo, error) {
	if w.chain.Enum == "" {
		return nil, nil
	}
	network, _ := w.GetNetwork(ctx)
	return &wallet.ChainInfo{Enum: w.chain.Enum, Name: w.chain.Label, Network: network}, nil
}

// GetPublicKey returns "": an address alone does not reveal its key.
func (w *WatchProvider) GetPublicKey(ctx context.Context) (string, error) {
	return "", nil
}

// GetBalance derives the balance from funded/spent sums. A net outgoing
// mempool amount is taken off the confirmed side so that Total stays the
// spendable figure.
func (w *WatchProvider) GetBalance(ctx context.Context) (wallet.Balance, error) {
	w.mu.RLock()
	address := w.address
	w.mu.RUnlock()

	stats, err := w.client.AddressStats(ctx, address)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return wallet.Balance{}, nil
		}
		return wallet.Balance{}, err
	}
	return balanceFromStats(stats), nil
}

func balanceFromStats(s *AddressStats) wallet.Balance {
	confirmed := s.ChainStats.Net()
	unconfirmed := s.MempoolStats.Net()
	if unconfirmed < 0 {
		confirmed += unconfirmed
		unconfirmed = 0
	}
	if confirmed < 0 {
		confirmed = 0
	}
	return wallet.Balance{Confirmed: confirmed, Unconfirmed: unconfirmed, Total: confirmed + unconfirmed}
}

func (w *WatchProvider) SignMessage(ctx context.Context, text string) (string, error) {
	return "", wallet.ErrUnsupported
}

func (w *WatchProvider) SendBitcoin(ctx context.Context, address string, amountSats int64) (string, error) {
	return "", wallet.ErrUnsupported
}

func (w *WatchProvider) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	w.connected = false
	w.mu.Unlock()
	return nil
}

// SetAddress switches the watched address and notifies listeners the way an
// extension does on an account switch.
func (w *WatchProvider) SetAddress(address string) {
	w.mu.Lock()
	w.address = strings.TrimSpace(address)
	var accounts []string
	if w.connected && w.address != "" {
		accounts = []string{w.address}
	}
	hs := w.handlersFor(wallet.EventAccountsChanged)
	w.mu.Unlock()

	for _, h := range hs {
		h(wallet.EventPayload{Accounts: accounts})
	}
}

func (w *WatchProvider) handlersFor(ev wallet.Event) []wallet.Handler {
	out := make([]wallet.Handler, 0, len(w.handlers[ev]))
	for _, h := range w.handlers[ev] {
		out = append(out, h)
	}
	return out
}

func (w *WatchProvider) On(event wallet.Event, h wallet.Handler) wallet.ListenerID {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	if w.handlers[event] == nil {
		w.handlers[event] = map[wallet.ListenerID]wallet.Handler{}
	}
	w.handlers[event][w.nextID] = h
	return w.nextID
}

func (w *WatchProvider) RemoveListener(event wallet.Event, id wallet.ListenerID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers[event], id)
}
