package sessionstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteKV keeps session keys in a single SQLite table next to the app data.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLite opens the session DB, enables WAL and creates the table.
func OpenSQLite(dbPath string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sessionstore: enable WAL: %w", err)
	}
	kv := &SQLiteKV{db: db}
	if err := kv.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// Close closes the DB.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

func (s *SQLiteKV) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS session_kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("sessionstore: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteKV) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM session_kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sessionstore: get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteKV) SetMany(values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sessionstore: begin: %w", err)
	}
	defer tx.Rollback()

	for k, v := range values {
		_, err := tx.Exec(
			`INSERT INTO session_kv (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET
			   value = excluded.value,
			   updated_at = CURRENT_TIMESTAMP`,
			k, v,
		)
		if err != nil {
			return fmt.Errorf("sessionstore: set %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sessionstore: commit: %w", err)
	}
	return nil
}

func (s *SQLiteKV) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	if _, err := s.db.Exec(`DELETE FROM session_kv WHERE key IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("sessionstore: delete: %w", err)
	}
	return nil
}
