// Package wallet reconciles an in-memory wallet session with an injected
// browser-extension style provider and a persisted copy of the session.
//
// A Manager owns the connection lifecycle:
//
//	mgr := wallet.NewManager(provider, store, wallet.Options{})
//	defer mgr.Close()
//	if !mgr.RestoreSession(ctx) {
//	    sess, err := mgr.Connect(ctx)
//	    ...
//	}
//
// While connected it refreshes on a fixed interval and on provider events.
// Refresh results are sequenced: a response older than the one already
// applied, or one started before a logout/guest/connect, is discarded.
package wallet

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultSettleDelay  = 1 * time.Second
	DefaultCallTimeout  = 10 * time.Second
)

// Options configures a Manager. Zero values fall back to the defaults.
type Options struct {
	// PollInterval is how often a connected session is refreshed.
	PollInterval time.Duration

	// SettleDelay is how long to wait before the forced refresh that follows
	// connect and send, giving the extension time to settle.
	SettleDelay time.Duration

	// CallTimeout bounds every provider call.
	CallTimeout time.Duration

	// ConfirmSends asks the provider to sign a confirmation message before
	// each send.
	ConfirmSends bool

	Logger   *log.Logger
	Emitter  Emitter
	Recorder TransferRecorder
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.Logger == nil {
		o.Logger = log.New(os.Stdout, "[WALLET] ", log.LstdFlags|log.Lshortfile)
	}
	return o
}

var errClosed = newError(KindProviderCallFailed, "wallet session manager is closed", nil)

// Manager maintains a single consistent wallet session.
type Manager struct {
	id       uuid.UUID
	provider Provider
	store    Store
	opts     Options
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	state     State
	session   Session
	lastErr   string
	gen       uint64
	seq       uint64
	applied   uint64
	closed    bool
	listeners map[Event]ListenerID
	pollStop  chan struct{}
	timers    map[*time.Timer]struct{}
}

// NewManager creates a disconnected manager. provider may be nil, which is
// treated the same as an extension that is not installed.
func NewManager(provider Provider, store Store, opts Options) *Manager {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		id:       uuid.New(),
		provider: provider,
		store:    store,
		opts:     opts,
		logger:   opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateDisconnected,
		session:  emptySession(),
		timers:   make(map[*time.Timer]struct{}),
	}
}

// ID identifies this manager instance in logs.
func (m *Manager) ID() string {
	return m.id.String()
}

func (m *Manager) present() bool {
	return m.provider != nil && m.provider.IsPresent()
}

// Attach subscribes to provider events. It is a no-op when the provider is
// missing, the manager is closed, or listeners are already installed.
func (m *Manager) Attach() bool {
	if !m.present() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	if m.listeners != nil {
		return true
	}
	m.listeners = map[Event]ListenerID{
		EventAccountsChanged: m.provider.On(EventAccountsChanged, m.onAccountsChanged),
		EventNetworkChanged:  m.provider.On(EventNetworkChanged, m.onNetworkChanged),
	}
	return true
}

// Close removes listeners, timers and the polling loop, and cancels
// in-flight provider calls. Results arriving afterwards are ignored.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopPollingLocked()
	m.stopTimersLocked()
	listeners := m.listeners
	m.listeners = nil
	m.mu.Unlock()

	m.cancel()
	if m.provider != nil {
		for ev, id := range listeners {
			m.provider.RemoveListener(ev, id)
		}
	}
}

// Snapshot returns the current state, session and last non-fatal error.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.clone()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{State: m.state, Session: m.session.clone(), Error: m.lastErr}
}

// RestoreSession adopts the persisted session only when the provider's first
// account is the persisted address. Anything else, including a partial
// persisted copy, leaves the manager disconnected with the store cleared.
func (m *Manager) RestoreSession(ctx context.Context) bool {
	persisted, ok, err := m.store.Load()
	if err != nil {
		m.logger.Printf("manager %s: load persisted session: %v", m.id, err)
		m.clearStore()
		return false
	}
	if !ok {
		m.clearStore()
		return false
	}
	if !m.present() {
		m.logger.Printf("manager %s: persisted session for %s but no provider", m.id, persisted.Address)
		m.clearStore()
		return false
	}
	m.Attach()

	m.mu.RLock()
	gen, state := m.gen, m.state
	m.mu.RUnlock()
	if state != StateDisconnected {
		return false
	}

	cctx, cancel := m.callContext(ctx)
	accounts, err := m.provider.GetAccounts(cctx)
	cancel()
	if err != nil {
		m.logger.Printf("manager %s: verify persisted session: %v", m.id, err)
		m.clearStore()
		return false
	}
	if len(accounts) == 0 || accounts[0] != persisted.Address {
		m.logger.Printf("manager %s: %v", m.id, ErrVerificationMismatch)
		m.clearStore()
		return false
	}

	m.mu.Lock()
	if m.closed || m.gen != gen || m.state != StateDisconnected {
		m.mu.Unlock()
		return false
	}
	m.gen++
	m.applied = m.seq
	m.state = StateConnected
	m.session = Session{
		Address:   persisted.Address,
		Accounts:  append([]string(nil), accounts...),
		Network:   persisted.Network,
		Connected: true,
	}
	m.lastErr = ""
	m.startPollingLocked()
	m.scheduleRefreshLocked(m.opts.SettleDelay)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
	return true
}

// Connect requests account access, reads the wallet and persists the session.
// A guest session is exited first. On failure the manager is disconnected and
// the typed error is returned.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Session{}, errClosed
	}
	m.gen++
	gen := m.gen
	m.state = StateConnecting
	m.session = emptySession()
	m.lastErr = ""
	m.stopPollingLocked()
	m.stopTimersLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)

	if !m.present() {
		return Session{}, m.failConnect(gen, ErrProviderMissing)
	}
	m.Attach()

	cctx, cancel := m.callContext(ctx)
	defer cancel()

	accounts, err := m.provider.RequestAccounts(cctx)
	if err != nil {
		return Session{}, m.failConnect(gen, newError(KindConnectionRejected, rejectionMessage(err), err))
	}
	if len(accounts) == 0 {
		return Session{}, m.failConnect(gen, ErrConnectionRejected)
	}

	info, err := fetchInfo(cctx, m.provider, false)
	if err != nil {
		return Session{}, m.failConnect(gen, err)
	}
	sess := info.session(accounts)

	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		return Session{}, newError(KindConnectionRejected, "connection attempt was superseded", nil)
	}
	m.applied = m.seq
	m.state = StateConnected
	m.session = sess
	m.startPollingLocked()
	m.scheduleRefreshLocked(m.opts.SettleDelay)
	m.persist(sess)
	snap = m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
	m.logger.Printf("manager %s: connected %s on %s", m.id, sess.Address, sess.Network)
	return sess.clone(), nil
}

func rejectionMessage(err error) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return ErrConnectionRejected.Message
}

func (m *Manager) failConnect(gen uint64, err error) error {
	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		return err
	}
	m.state = StateDisconnected
	m.session = emptySession()
	m.lastErr = err.Error()
	m.clearStore()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Printf("manager %s: connect failed: %v", m.id, err)
	m.emit(snap)
	m.emitError(err)
	return err
}

// Refresh re-reads the provider. Without force it only runs while connected.
// A failure leaves the last known session untouched and is returned as a
// non-fatal ProviderCallFailed error.
func (m *Manager) Refresh(ctx context.Context, force bool) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	switch {
	case m.state == StateConnected:
	case force && m.state == StateDisconnected:
	default:
		m.mu.Unlock()
		return nil
	}
	m.seq++
	seq, gen := m.seq, m.gen
	m.mu.Unlock()

	if !m.present() {
		return m.refreshFailed(gen, newError(KindProviderCallFailed, "wallet provider is no longer available", nil))
	}

	cctx, cancel := m.callContext(ctx)
	info, err := fetchInfo(cctx, m.provider, true)
	cancel()
	if err != nil {
		return m.refreshFailed(gen, err)
	}

	m.mu.Lock()
	if m.closed || m.gen != gen || seq <= m.applied {
		m.mu.Unlock()
		return nil
	}
	m.applied = seq

	if len(info.accounts) == 0 {
		if m.state != StateConnected {
			m.mu.Unlock()
			return nil
		}
		snap := m.disconnectLocked()
		m.clearStore()
		m.mu.Unlock()
		m.emit(snap)
		return nil
	}

	prev := m.session
	wasConnected := m.state == StateConnected
	sess := info.session(info.accounts)
	m.state = StateConnected
	m.session = sess
	m.lastErr = ""
	m.startPollingLocked()
	if !wasConnected || prev.Address != sess.Address || prev.Network != sess.Network {
		m.persist(sess)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
	return nil
}

func (m *Manager) refreshFailed(gen uint64, err error) error {
	m.logger.Printf("manager %s: refresh failed: %v", m.id, err)
	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		return err
	}
	m.lastErr = "Error updating wallet info. Please check your connection."
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
	m.emitError(err)
	return err
}

// SendBitcoin validates the amount against the cached balance before asking
// the provider to send. Validation failures never reach the provider.
func (m *Manager) SendBitcoin(ctx context.Context, address string, amountSats int64) (string, error) {
	m.mu.RLock()
	state, sess := m.state, m.session
	closed := m.closed
	m.mu.RUnlock()

	if closed {
		return "", errClosed
	}
	if state != StateConnected {
		return "", ErrNotConnected
	}
	if amountSats <= 0 {
		return "", ErrInvalidAmount
	}
	if amountSats > sess.Balance.Total {
		return "", ErrInsufficientFunds
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrInvalidAddress
	}
	if !m.present() {
		return "", ErrProviderMissing
	}

	cctx, cancel := m.callContext(ctx)
	defer cancel()

	if m.opts.ConfirmSends {
		sig, err := m.provider.SignMessage(cctx, confirmationMessage(address, amountSats))
		if err != nil {
			return "", providerFailed("signMessage", err)
		}
		if strings.TrimSpace(sig) == "" {
			return "", ErrSignatureRequired
		}
	}

	txid, err := m.provider.SendBitcoin(cctx, address, amountSats)
	if err != nil {
		err = providerFailed("sendBitcoin", err)
		m.logger.Printf("manager %s: send %d sats to %s: %v", m.id, amountSats, address, err)
		return "", err
	}

	m.logger.Printf("manager %s: sent %d sats to %s (txid %s)", m.id, amountSats, address, txid)
	if m.opts.Recorder != nil {
		m.opts.Recorder.RecordTransfer(Transfer{
			TxID:    txid,
			From:    sess.Address,
			To:      address,
			Amount:  amountSats,
			Network: sess.Network,
		})
	}

	m.mu.Lock()
	if !m.closed {
		m.scheduleRefreshLocked(m.opts.SettleDelay)
	}
	m.mu.Unlock()
	return txid, nil
}

func confirmationMessage(address string, amountSats int64) string {
	return fmt.Sprintf("Send %d sats to %s", amountSats, address)
}

// Logout always succeeds locally: state and storage are cleared before the
// provider is asked to disconnect, and a disconnect failure is only logged.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.clearStore()
		return
	}
	snap := m.disconnectLocked()
	m.clearStore()
	m.mu.Unlock()

	m.emit(snap)

	if m.present() {
		cctx, cancel := m.callContext(ctx)
		defer cancel()
		if err := m.provider.Disconnect(cctx); err != nil {
			m.logger.Printf("manager %s: provider disconnect: %v", m.id, err)
		}
	}
}

// PlayAsGuest drops any session and enters guest mode.
func (m *Manager) PlayAsGuest() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.state = StateGuest
	m.session = emptySession()
	m.session.IsGuest = true
	m.lastErr = ""
	m.stopPollingLocked()
	m.stopTimersLocked()
	m.clearStore()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
}

// disconnectLocked moves to Disconnected and invalidates in-flight work.
func (m *Manager) disconnectLocked() Snapshot {
	m.gen++
	m.state = StateDisconnected
	m.session = emptySession()
	m.lastErr = ""
	m.stopPollingLocked()
	m.stopTimersLocked()
	return m.snapshotLocked()
}

func (m *Manager) onAccountsChanged(p EventPayload) {
	m.mu.Lock()
	if m.closed || m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	if len(p.Accounts) == 0 {
		snap := m.disconnectLocked()
		m.clearStore()
		m.mu.Unlock()
		m.logger.Printf("manager %s: wallet reported no accounts, disconnected", m.id)
		m.emit(snap)
		return
	}
	m.mu.Unlock()
	go m.Refresh(m.ctx, true)
}

func (m *Manager) onNetworkChanged(EventPayload) {
	m.mu.RLock()
	active := !m.closed && m.state == StateConnected
	m.mu.RUnlock()
	if active {
		go m.Refresh(m.ctx, true)
	}
}

// startPollingLocked starts the refresh loop unless one is already running.
func (m *Manager) startPollingLocked() {
	if m.pollStop != nil || m.closed {
		return
	}
	stop := make(chan struct{})
	m.pollStop = stop
	go m.pollLoop(stop)
}

func (m *Manager) stopPollingLocked() {
	if m.pollStop != nil {
		close(m.pollStop)
		m.pollStop = nil
	}
}

func (m *Manager) pollLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			_ = m.Refresh(m.ctx, false)
		}
	}
}

func (m *Manager) scheduleRefreshLocked(delay time.Duration) {
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		m.mu.Lock()
		_, pending := m.timers[t]
		delete(m.timers, t)
		m.mu.Unlock()
		if pending {
			_ = m.Refresh(m.ctx, true)
		}
	})
	m.timers[t] = struct{}{}
}

func (m *Manager) stopTimersLocked() {
	for t := range m.timers {
		t.Stop()
	}
	clear(m.timers)
}

// callContext bounds a provider call by CallTimeout and by the manager's
// lifetime.
func (m *Manager) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
	stop := context.AfterFunc(m.ctx, cancel)
	return cctx, func() {
		stop()
		cancel()
	}
}

// persist and clearStore run under m.mu so the persisted copy follows the
// same order as in-memory transitions.
func (m *Manager) persist(sess Session) {
	err := m.store.Save(PersistedSession{
		Connected: true,
		Address:   sess.Address,
		Network:   sess.Network,
	})
	if err != nil {
		m.logger.Printf("manager %s: persist session: %v", m.id, err)
	}
}

func (m *Manager) clearStore() {
	if err := m.store.Clear(); err != nil {
		m.logger.Printf("manager %s: clear persisted session: %v", m.id, err)
	}
}

func (m *Manager) emit(snap Snapshot) {
	if m.opts.Emitter != nil {
		m.opts.Emitter.EmitSession(snap)
	}
}

func (m *Manager) emitError(err error) {
	if m.opts.Emitter != nil {
		m.opts.Emitter.EmitError(err)
	}
}
