package txlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "transfers.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	fixtures := []Transfer{
		{TxID: "aa", From: "bc1qfrom", To: "bc1qto", AmountSats: 1000, Network: "mainnet", CreatedAt: base},
		{TxID: "bb", From: "bc1qfrom", To: "bc1qto", AmountSats: 2000, Network: "mainnet", CreatedAt: base.Add(time.Minute)},
		{TxID: "cc", From: "tb1qfrom", To: "tb1qto", AmountSats: 3000, Network: "testnet", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, f := range fixtures {
		rec, inserted, err := s.Insert(ctx, f)
		if err != nil || !inserted {
			t.Fatalf("Insert %s: inserted=%v err=%v", f.TxID, inserted, err)
		}
		if rec.ID == uuid.Nil {
			t.Fatalf("Insert %s: no id assigned", f.TxID)
		}
	}

	rows, total, err := s.List(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d (total %d)", len(rows), total)
	}
	if rows[0].TxID != "cc" || rows[2].TxID != "aa" {
		t.Fatalf("expected newest first, got %s..%s", rows[0].TxID, rows[2].TxID)
	}

	rows, total, err = s.List(ctx, "mainnet", 1, 1)
	if err != nil {
		t.Fatalf("List mainnet: %v", err)
	}
	if total != 2 || len(rows) != 1 || rows[0].TxID != "aa" {
		t.Fatalf("unexpected filtered page: total=%d rows=%+v", total, rows)
	}
}

func TestInsertDuplicateIgnored(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tr := Transfer{TxID: "dup", From: "a", To: "b", AmountSats: 1, Network: "mainnet"}
	if _, inserted, err := s.Insert(ctx, tr); err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	if _, inserted, err := s.Insert(ctx, tr); err != nil || inserted {
		t.Fatalf("duplicate insert: inserted=%v err=%v", inserted, err)
	}
	tr.Network = "testnet"
	if _, inserted, err := s.Insert(ctx, tr); err != nil || !inserted {
		t.Fatalf("same txid on another network: inserted=%v err=%v", inserted, err)
	}
}

func TestInsertValidation(t *testing.T) {
	s := openTestStore(t)
	cases := []Transfer{
		{TxID: "", AmountSats: 1},
		{TxID: "x", AmountSats: 0},
		{TxID: "x", AmountSats: -5},
	}
	for _, tc := range cases {
		if _, _, err := s.Insert(context.Background(), tc); err == nil {
			t.Errorf("Insert(%+v): expected error", tc)
		}
	}
}

func TestNoteAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec, _, err := s.Insert(ctx, Transfer{TxID: "n1", From: "a", To: "b", AmountSats: 10, Network: "mainnet"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := s.UpdateNote(ctx, rec.ID, "rent"); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Note != "rent" || got.AmountSats != 10 {
		t.Fatalf("unexpected transfer: %+v", got)
	}

	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateNote(ctx, uuid.New(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("note on unknown id: expected ErrNotFound, got %v", err)
	}
}

func TestExportCSV(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.Insert(ctx, Transfer{TxID: "t2", From: "a", To: "b", AmountSats: 20, Network: "mainnet", Note: "pizza, twice", CreatedAt: base.Add(time.Hour)})
	s.Insert(ctx, Transfer{TxID: "t1", From: "a", To: "b", AmountSats: 10, Network: "mainnet", CreatedAt: base})

	var buf bytes.Buffer
	if err := s.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][1] != "txid" || records[1][1] != "t1" || records[2][1] != "t2" {
		t.Fatalf("unexpected csv order: %v", records)
	}
	if records[2][6] != "pizza, twice" || records[2][4] != "20" {
		t.Fatalf("unexpected row: %v", records[2])
	}
}
