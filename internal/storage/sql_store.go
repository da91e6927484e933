package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/nudge/internal/logger"
)

// sqlStore implements KeyValueStore over a kv table. The previous value of every key is
// kept in kv_backup and undecodable rows are moved to kv_quarantine. Deleted rows go to
// kv_quarantine too so that kv_backup never resurrects them.
type sqlStore struct {
	db       *sql.DB
	numbered bool // $1-style placeholders
	now      func() time.Time
}

var kvSchema = []string{
	`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS kv_backup (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS kv_quarantine (
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		quarantined_at TEXT NOT NULL
	)`,
}

func (s *sqlStore) migrate() error {
	for _, stmt := range kvSchema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for drivers that want numbered parameters.
func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	return rebindNumbered(query)
}

func rebindNumbered(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *sqlStore) load(key string, v any) (bool, error) {
	if s.db == nil {
		return false, ErrNotLoaded
	}

	var value string
	err := s.db.QueryRow(s.rebind(`SELECT value FROM kv WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if json.Valid([]byte(value)) {
		if err := json.Unmarshal([]byte(value), v); err == nil {
			return true, nil
		}
	}

	if err := s.quarantine(key, value); err != nil {
		logger.Error("Failed to quarantine corrupt record", "key", key, "error", err)
	} else {
		logger.Warn("Quarantined corrupt record", "key", key)
	}

	ok, err := s.loadBackup(key, v)
	if err != nil || !ok {
		return false, fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	logger.Warn("Recovered record from backup", "key", key)
	return true, nil
}

func (s *sqlStore) loadBackup(key string, v any) (bool, error) {
	var value string
	err := s.db.QueryRow(s.rebind(`SELECT value FROM kv_backup WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read backup for %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return false, fmt.Errorf("%w: backup for %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func (s *sqlStore) quarantine(key, value string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.rebind(`INSERT INTO kv_quarantine (key, value, quarantined_at) VALUES (?, ?, ?)`), key, value, s.stamp()); err != nil {
		return err
	}
	if _, err := tx.Exec(s.rebind(`DELETE FROM kv WHERE key = ?`), key); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) save(key string, v any) error {
	if s.db == nil {
		return ErrNotLoaded
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.stamp()
	var existing string
	err = tx.QueryRow(s.rebind(`SELECT value FROM kv WHERE key = ?`), key).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", key, err)
	case json.Valid([]byte(existing)):
		if isEmptyPayload(data) && !isEmptyPayload([]byte(existing)) {
			return fmt.Errorf("%w: %s", ErrEmptyOverwrite, key)
		}
		if err := s.upsert(tx, "kv_backup", key, existing, now); err != nil {
			return fmt.Errorf("failed to back up %s: %w", key, err)
		}
	default:
		if _, err := tx.Exec(s.rebind(`INSERT INTO kv_quarantine (key, value, quarantined_at) VALUES (?, ?, ?)`), key, existing, now); err != nil {
			return fmt.Errorf("failed to quarantine %s: %w", key, err)
		}
	}

	if err := s.upsert(tx, "kv", key, string(data), now); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *sqlStore) upsert(tx *sql.Tx, table, key, value, now string) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, table)
	_, err := tx.Exec(s.rebind(query), key, value, now)
	return err
}

func (s *sqlStore) delete(key string) error {
	if s.db == nil {
		return ErrNotLoaded
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRow(s.rebind(`SELECT value FROM kv WHERE key = ?`), key).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if _, err := tx.Exec(s.rebind(`INSERT INTO kv_quarantine (key, value, quarantined_at) VALUES (?, ?, ?)`), key, existing, s.stamp()); err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}
	if _, err := tx.Exec(s.rebind(`DELETE FROM kv_backup WHERE key = ?`), key); err != nil {
		return fmt.Errorf("failed to delete backup for %s: %w", key, err)
	}
	if _, err := tx.Exec(s.rebind(`DELETE FROM kv WHERE key = ?`), key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return tx.Commit()
}

// QuarantinedCount returns the number of quarantined rows, for diagnostics.
func (s *sqlStore) QuarantinedCount() (int, error) {
	if s.db == nil {
		return 0, ErrNotLoaded
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM kv_quarantine`).Scan(&n)
	return n, err
}
