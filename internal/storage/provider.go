package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// Open selects a backend from config: a postgres:// URL, a *.db SQLite file, or a
// directory of JSON files. The store is initialized before it is returned.
func Open(config string) (KeyValueStore, error) {
	store, err := New(config)
	if err != nil {
		return nil, err
	}
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

// New selects a backend without initializing it.
func New(config string) (KeyValueStore, error) {
	if IsPostgresConnString(config) {
		if HasEmbeddedCredentials(config) {
			return nil, ErrEmbeddedCredentials
		}
		return NewPostgresStore(ResolveConnectionString(config)), nil
	}

	path := ExpandHome(config)
	if strings.HasSuffix(path, ".db") {
		return NewSQLiteStore(path), nil
	}
	return NewJSONStore(path), nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DataDir returns the directory holding the store's files, used for logs and backups.
// PostgreSQL stores fall back to the default local data directory.
func DataDir(store KeyValueStore, fallback string) string {
	switch s := store.(type) {
	case *JSONStore:
		return s.Path()
	case *SQLiteStore:
		return filepath.Dir(s.Path())
	default:
		return ExpandHome(fallback)
	}
}
