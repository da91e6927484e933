package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/keyring"
	"github.com/julianstephens/nudge/internal/logger"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// PostgresStore keeps records in a PostgreSQL kv table.
type PostgresStore struct {
	sqlStore
	connStr string
}

func NewPostgresStore(connStr string) *PostgresStore {
	return &PostgresStore{
		sqlStore: sqlStore{numbered: true, now: time.Now},
		connStr:  connStr,
	}
}

func (s *PostgresStore) Init() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db

	return s.migrate()
}

func (s *PostgresStore) Load(key string, v any) (bool, error) { return s.load(key, v) }
func (s *PostgresStore) Save(key string, v any) error         { return s.save(key, v) }
func (s *PostgresStore) Delete(key string) error              { return s.delete(key) }

// Path returns the connection string with any password redacted.
func (s *PostgresStore) Path() string {
	if u, err := url.Parse(s.connStr); err == nil && u.User != nil {
		return u.Redacted()
	}
	return s.connStr
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// IsPostgresConnString reports whether config selects the PostgreSQL backend.
func IsPostgresConnString(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// ValidateConnString checks that connStr parses and carries no password.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	if HasEmbeddedCredentials(connStr) {
		return ErrEmbeddedCredentials
	}
	return nil
}

// HasEmbeddedCredentials reports whether a URL or DSN connection string contains a password.
func HasEmbeddedCredentials(connStr string) bool {
	if IsPostgresConnString(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false
		}
		if u.User != nil {
			if _, ok := u.User.Password(); ok {
				return true
			}
		}
		return u.Query().Get("password") != ""
	}

	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], "password") {
			return true
		}
	}
	return false
}

// lookupConnectionString is swapped in tests.
var lookupConnectionString = keyring.GetConnectionString

// ResolveConnectionString picks the connection string to use: the environment first,
// then the OS keyring, then the passwordless string given on the command line.
func ResolveConnectionString(configured string) string {
	if env := strings.TrimSpace(os.Getenv(constants.EnvDBConnection)); env != "" {
		return env
	}
	connStr, err := lookupConnectionString()
	if err == nil && connStr != "" {
		return connStr
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Debug("Keyring lookup failed", "error", err)
	}
	return configured
}
