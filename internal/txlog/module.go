package txlog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/satsarcade/sats-arcade/bindings"
)

// EventNewTransfer is emitted after a send is recorded.
const EventNewTransfer = "transfers:new"

// TransferModule is a Wails-bound service that owns the transfer history DB.
// It is also the wallet's TransferRecorder, so every successful send lands
// here.
type TransferModule struct {
	mu     sync.RWMutex
	ctx    context.Context
	store  *Store
	logger *log.Logger
	emit   func(ctx context.Context, name string, data ...interface{})
}

var _ bindings.TransferRecorder = (*TransferModule)(nil)

// NewTransferModule opens the history DB at dbPath.
func NewTransferModule(dbPath string) (*TransferModule, error) {
	store, err := New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("transfer store init failed: %w", err)
	}
	return &TransferModule{
		store:  store,
		logger: log.New(os.Stdout, "[TXLOG] ", log.LstdFlags|log.Lshortfile),
		emit:   runtime.EventsEmit,
	}, nil
}

// Startup stores the Wails context.
func (m *TransferModule) Startup(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()
}

// Shutdown closes the DB.
func (m *TransferModule) Shutdown() error {
	return m.store.Close()
}

func (m *TransferModule) callCtx() context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}

// RecordTransfer stores a successful send. Failures are logged; the send has
// already happened and must not be reported as failed.
func (m *TransferModule) RecordTransfer(t bindings.Transfer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec, inserted, err := m.store.Insert(ctx, Transfer{
		TxID:       t.TxID,
		From:       t.From,
		To:         t.To,
		AmountSats: t.Amount,
		Network:    string(t.Network),
	})
	if err != nil {
		m.logger.Printf("record transfer %s: %v", t.TxID, err)
		return
	}
	if !inserted {
		m.logger.Printf("transfer %s on %s already recorded", t.TxID, t.Network)
		return
	}

	m.mu.RLock()
	wctx := m.ctx
	m.mu.RUnlock()
	if wctx != nil {
		m.emit(wctx, EventNewTransfer, rec)
	}
}

// ------------- Wails binding methods (UI calls) -------------

// TransfersPage is a page of history rows plus the total matching count.
type TransfersPage struct {
	Rows  []Transfer `json:"rows"`
	Total int64      `json:"total"`
}

// ListTransfers returns recorded sends newest first. An empty network lists all.
func (m *TransferModule) ListTransfers(network string, limit int, offset int) (TransfersPage, error) {
	rows, total, err := m.store.List(m.callCtx(), network, limit, offset)
	if err != nil {
		return TransfersPage{}, err
	}
	return TransfersPage{Rows: rows, Total: total}, nil
}

func (m *TransferModule) GetTransfer(id string) (Transfer, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Transfer{}, fmt.Errorf("invalid transfer id: %w", err)
	}
	return m.store.Get(m.callCtx(), uid)
}

// SetNote attaches a free-form note to a transfer.
func (m *TransferModule) SetNote(id string, note string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid transfer id: %w", err)
	}
	return m.store.UpdateNote(m.callCtx(), uid, note)
}

func (m *TransferModule) DeleteTransfer(id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid transfer id: %w", err)
	}
	return m.store.Delete(m.callCtx(), uid)
}

// ExportCSV writes the full history to a temp CSV and returns the path.
func (m *TransferModule) ExportCSV() (string, error) {
	name := fmt.Sprintf("transfers_%d.csv", time.Now().UTC().UnixNano())
	path := filepath.Join(os.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := m.store.ExportCSV(m.callCtx(), f); err != nil {
		return "", err
	}
	return path, nil
}
