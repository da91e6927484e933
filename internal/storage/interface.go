package storage

import (
	"bytes"
	"errors"

	"github.com/julianstephens/nudge/internal/logger"
)

var (
	// ErrCorrupt is returned when a stored record cannot be decoded. The record has been
	// quarantined and no readable backup was available.
	ErrCorrupt = errors.New("stored record is corrupt")
	// ErrEmptyOverwrite is returned when a save would replace a non-empty record with an
	// empty one. Use Delete to clear a record.
	ErrEmptyOverwrite = errors.New("refusing to overwrite non-empty record with empty value")
	// ErrNotLoaded is returned when a store is used before Init.
	ErrNotLoaded = errors.New("storage not loaded")
)

// KeyValueStore persists JSON-shaped records by key.
type KeyValueStore interface {
	Init() error
	// Load decodes the record stored under key into v. It reports false when no record exists.
	Load(key string, v any) (bool, error)
	// Save replaces the record stored under key, keeping the previous value as a backup.
	Save(key string, v any) error
	// Delete removes the record, keeping it recoverable as a backup.
	Delete(key string) error
	Path() string
	Close() error
}

// Load reads a record, treating missing and unreadable records alike as absent.
func Load[T any](s KeyValueStore, key string) (T, bool) {
	var v T
	ok, err := s.Load(key, &v)
	if err != nil {
		logger.Warn("Failed to load record, using defaults", "key", key, "error", err)
		var zero T
		return zero, false
	}
	return v, ok
}

// Save writes a record on a best-effort basis. Failures are logged and reported as false.
func Save[T any](s KeyValueStore, key string, v T) bool {
	if err := s.Save(key, v); err != nil {
		logger.Warn("Failed to save record", "key", key, "error", err)
		return false
	}
	return true
}

// isEmptyPayload reports whether encoded JSON carries no data.
func isEmptyPayload(data []byte) bool {
	switch string(bytes.TrimSpace(data)) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}
