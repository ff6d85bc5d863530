// Package txlog keeps a local history of sends made from the desktop app.
package txlog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// ErrNotFound is returned when a transfer id does not exist.
var ErrNotFound = errors.New("txlog: transfer not found")

// Transfer is one recorded send.
type Transfer struct {
	ID         uuid.UUID `json:"id"`
	TxID       string    `json:"txid"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	AmountSats int64     `json:"amountSats"`
	Network    string    `json:"network"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Store struct {
	db *sql.DB
}

// New opens/creates a SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transfers (
			id TEXT PRIMARY KEY,
			txid TEXT NOT NULL,
			from_address TEXT NOT NULL,
			to_address TEXT NOT NULL,
			amount_sats INTEGER NOT NULL,
			network TEXT NOT NULL,
			note TEXT DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			UNIQUE(txid, network)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_created ON transfers(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_network ON transfers(network, created_at DESC);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Insert stores t, assigning an id and timestamp when unset. A transfer
// already recorded under the same (txid, network) is ignored and reported
// with inserted=false.
func (s *Store) Insert(ctx context.Context, t Transfer) (Transfer, bool, error) {
	if strings.TrimSpace(t.TxID) == "" {
		return t, false, errors.New("txlog: missing txid")
	}
	if t.AmountSats <= 0 {
		return t, false, errors.New("txlog: amount must be positive")
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfers(id, txid, from_address, to_address, amount_sats, network, note, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.TxID, t.From, t.To, t.AmountSats, t.Network, t.Note, t.CreatedAt.UTC())
	if err != nil {
		if isConstraintErr(err) {
			return t, false, nil
		}
		return t, false, err
	}
	return t, true, nil
}

// Get returns one transfer.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Transfer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, txid, from_address, to_address, amount_sats, network, note, created_at
		FROM transfers WHERE id=?`, id.String())
	t, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Transfer{}, ErrNotFound
	}
	return t, err
}

// List returns transfers newest first, optionally filtered by network, with
// the total count of matching rows.
func (s *Store) List(ctx context.Context, network string, limit, offset int) ([]Transfer, int64, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	where := "1=1"
	var args []any
	if network != "" {
		where = "network = ?"
		args = append(args, network)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transfers WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageQ := `
		SELECT id, txid, from_address, to_address, amount_sats, network, note, created_at
		FROM transfers WHERE ` + where + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, pageQ, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// UpdateNote sets or clears the note on a transfer.
func (s *Store) UpdateNote(ctx context.Context, id uuid.UUID, note string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transfers SET note=? WHERE id=?`, note, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a transfer.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transfers WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ExportCSV writes every transfer, oldest first, to w (header included).
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "txid", "from", "to", "amount_sats", "network", "note", "created_at"}); err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, txid, from_address, to_address, amount_sats, network, note, created_at
		FROM transfers ORDER BY created_at ASC, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return err
		}
		rec := []string{
			t.ID.String(), t.TxID, t.From, t.To,
			strconv.FormatInt(t.AmountSats, 10), t.Network, t.Note,
			t.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(sc scanner) (Transfer, error) {
	var (
		t  Transfer
		id string
	)
	if err := sc.Scan(&id, &t.TxID, &t.From, &t.To, &t.AmountSats, &t.Network, &t.Note, &t.CreatedAt); err != nil {
		return Transfer{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Transfer{}, fmt.Errorf("txlog: bad id %q: %w", id, err)
	}
	t.ID = parsed
	return t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isConstraintErr(err error) bool {
	// modernc sqlite reports "UNIQUE constraint failed: ...".
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") || strings.Contains(msg, "unique constraint")
}
