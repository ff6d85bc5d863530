package bindings

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/satsarcade/sats-arcade/internal/config"
	"github.com/satsarcade/sats-arcade/internal/jsprovider"
	"github.com/satsarcade/sats-arcade/internal/mempool"
	"github.com/satsarcade/sats-arcade/internal/sessionstore"
	"github.com/satsarcade/sats-arcade/internal/wallet"
)

// Transfer is a successful send, handed to the TransferRecorder.
type Transfer = wallet.Transfer

// TransferRecorder persists successful sends.
type TransferRecorder = wallet.TransferRecorder

// WalletView is the frontend-facing session snapshot.
type WalletView struct {
	wallet.Snapshot
	NetworkName string `json:"networkName"`
	BalanceBTC  string `json:"balanceBtc"`
}

func viewOf(snap wallet.Snapshot) WalletView {
	return WalletView{
		Snapshot:    snap,
		NetworkName: wallet.DisplayName(snap.Session.Network),
		BalanceBTC:  wallet.FormatBTC(snap.Session.Balance.Total),
	}
}

// SendResult is returned by SendBitcoin.
type SendResult struct {
	TxID       string `json:"txid"`
	Address    string `json:"address"`
	AmountSats int64  `json:"amountSats"`
}

// WalletModule is the Wails-bound wrapper around the wallet session manager.
type WalletModule struct {
	ctx     context.Context
	manager  *wallet.Manager
	provider wallet.Provider
	store    *sessionstore.Store
	emitter  *wailsEmitter
	logger   *log.Logger
	closeKV  func() error
}

// NewWalletModule builds the session store and provider selected by cfg.
// recorder may be nil.
func NewWalletModule(cfg *Config, recorder TransferRecorder) (*WalletModule, error) {
	logger := log.New(os.Stdout, "[WALLET] ", log.LstdFlags|log.Lshortfile)

	kv, closeKV, err := openKV(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		_ = closeKV()
		return nil, err
	}

	store := sessionstore.New(kv)
	emitter := newWailsEmitter()
	mgr := wallet.NewManager(provider, store, wallet.Options{
		PollInterval: cfg.PollInterval,
		SettleDelay:  cfg.SettleDelay,
		CallTimeout:  cfg.CallTimeout,
		ConfirmSends: cfg.ConfirmSends,
		Logger:       logger,
		Emitter:      emitter,
		Recorder:     recorder,
	})
	logger.Printf("manager %s: store=%s provider=%s", mgr.ID(), cfg.Store, cfg.Provider)

	return &WalletModule{
		manager:  mgr,
		provider: provider,
		store:    store,
		emitter:  emitter,
		logger:   logger,
		closeKV:  closeKV,
	}, nil
}

func openKV(cfg *Config) (sessionstore.KV, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store {
	case config.StoreMemory:
		return sessionstore.NewMemoryKV(), noop, nil
	case config.StoreKeyring:
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		return sessionstore.NewKeyringKV(cfg.KeyringService, cfg.KeyringFallbackPath()), noop, nil
	case config.StoreSQLite, "":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		kv, err := sessionstore.OpenSQLite(cfg.SessionDBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("session store init failed: %w", err)
		}
		return kv, kv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

func buildProvider(cfg *Config) (wallet.Provider, error) {
	switch cfg.Provider {
	case config.ProviderMempool:
		chain, ok := wallet.LookupChain(wallet.ChainType(strings.ToUpper(strings.TrimSpace(cfg.WatchChain))))
		if !ok {
			return nil, fmt.Errorf("unknown watch chain %q", cfg.WatchChain)
		}
		client := mempool.ClientForChain(chain, mempool.Config{BaseURL: cfg.MempoolURL})
		return mempool.NewWatchProvider(client, chain, cfg.WatchAddress), nil
	case config.ProviderScript, "":
		if strings.TrimSpace(cfg.WalletScript) == "" {
			return jsprovider.NewDemo()
		}
		src, err := os.ReadFile(cfg.WalletScript)
		if err != nil {
			return nil, fmt.Errorf("read wallet script: %w", err)
		}
		return jsprovider.New(string(src))
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Startup captures the Wails context, subscribes to provider events and
// restores a cached session if the wallet still agrees with it. Without a
// provider the cached session is dropped.
func (m *WalletModule) Startup(ctx context.Context) {
	m.ctx = ctx
	m.emitter.setContext(ctx)
	if !m.manager.Attach() {
		m.logger.Printf("wallet provider not present; starting disconnected")
	}
	if m.manager.RestoreSession(ctx) {
		m.logger.Printf("restored session %s", m.manager.Session().Address)
	}
}

// Shutdown stops polling and closes the session store.
func (m *WalletModule) Shutdown() error {
	m.manager.Close()
	return m.closeKV()
}

func (m *WalletModule) callCtx() context.Context {
	if m.ctx != nil {
		return m.ctx
	}
	return context.Background()
}

// GetSession returns the current snapshot.
func (m *WalletModule) GetSession() WalletView {
	return viewOf(m.manager.Snapshot())
}

func (m *WalletModule) Connect() (WalletView, error) {
	if _, err := m.manager.Connect(m.callCtx()); err != nil {
		return m.GetSession(), err
	}
	return m.GetSession(), nil
}

// Refresh forces a re-read of the wallet.
func (m *WalletModule) Refresh() (WalletView, error) {
	err := m.manager.Refresh(m.callCtx(), true)
	return m.GetSession(), err
}

// SendBitcoin parses amount in unit ("sats" or "btc") and sends it.
func (m *WalletModule) SendBitcoin(address, amount, unit string) (SendResult, error) {
	sats, err := wallet.ParseAmount(amount, wallet.Unit(unit))
	if err != nil {
		return SendResult{}, err
	}
	address = strings.TrimSpace(address)
	txid, err := m.manager.SendBitcoin(m.callCtx(), address, sats)
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{TxID: txid, Address: address, AmountSats: sats}, nil
}

func (m *WalletModule) Logout() WalletView {
	m.manager.Logout(m.callCtx())
	return m.GetSession()
}

func (m *WalletModule) PlayAsGuest() WalletView {
	m.manager.PlayAsGuest()
	return m.GetSession()
}

// SetWatchAddress switches the address followed by the mempool provider.
// The manager picks the change up as an account switch.
func (m *WalletModule) SetWatchAddress(address string) error {
	wp, ok := m.provider.(*mempool.WatchProvider)
	if !ok {
		return fmt.Errorf("watch address requires the %s provider", config.ProviderMempool)
	}
	wp.SetAddress(address)
	m.logger.Printf("watch address set to %q", strings.TrimSpace(address))
	return nil
}

// Chains lists the chains the wallet can report.
func (m *WalletModule) Chains() []wallet.Chain {
	return wallet.Chains()
}
