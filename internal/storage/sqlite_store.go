package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in a single SQLite database file.
type SQLiteStore struct {
	sqlStore
	path string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		sqlStore: sqlStore{now: time.Now},
		path:     path,
	}
}

func (s *SQLiteStore) Init() error {
	if s.db != nil {
		return nil
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// modernc's driver serializes writes per connection
	db.SetMaxOpenConns(1)
	s.db = db

	return s.migrate()
}

func (s *SQLiteStore) Load(key string, v any) (bool, error) { return s.load(key, v) }
func (s *SQLiteStore) Save(key string, v any) error         { return s.save(key, v) }
func (s *SQLiteStore) Delete(key string) error              { return s.delete(key) }

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// GetDB returns the underlying database connection, or nil before Init.
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}
