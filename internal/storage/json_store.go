package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/julianstephens/nudge/internal/logger"
)

const (
	jsonSuffix       = ".json"
	backupSuffix     = ".bak"
	deletedSuffix    = ".deleted"
	quarantineSuffix = ".corrupt-"
)

// JSONStore keeps one JSON file per key in a directory. Writes go through a temp file and
// rename; the previous contents are kept as <key>.json.bak and unreadable files are renamed
// aside instead of being overwritten. Deleted records are renamed to <key>.json.deleted.
type JSONStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		dir: dir,
		now: time.Now,
	}
}

func (s *JSONStore) Init() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func (s *JSONStore) Path() string {
	return s.dir
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) file(key string) string {
	return filepath.Join(s.dir, key+jsonSuffix)
}

func (s *JSONStore) Load(key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.file(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if json.Valid(data) {
		if err := json.Unmarshal(data, v); err == nil {
			return true, nil
		}
	}

	quarantined, qerr := s.quarantine(path)
	if qerr != nil {
		logger.Error("Failed to quarantine corrupt record", "key", key, "error", qerr)
	} else {
		logger.Warn("Quarantined corrupt record", "key", key, "path", quarantined)
	}

	ok, err := s.loadBackup(key, v)
	if err != nil || !ok {
		return false, fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	logger.Warn("Recovered record from backup", "key", key)
	return true, nil
}

func (s *JSONStore) loadBackup(key string, v any) (bool, error) {
	data, err := os.ReadFile(s.file(key) + backupSuffix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read backup for %s: %w", key, err)
	}
	if !json.Valid(data) {
		return false, fmt.Errorf("%w: backup for %s", ErrCorrupt, key)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: backup for %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func (s *JSONStore) Save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.file(key)
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && json.Valid(existing):
		if isEmptyPayload(data) && !isEmptyPayload(existing) {
			return fmt.Errorf("%w: %s", ErrEmptyOverwrite, key)
		}
		if err := writeFileAtomic(path+backupSuffix, existing); err != nil {
			return fmt.Errorf("failed to back up %s: %w", key, err)
		}
	case err == nil:
		if _, err := s.quarantine(path); err != nil {
			return fmt.Errorf("failed to quarantine %s: %w", key, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	return writeFileAtomic(path, data)
}

func (s *JSONStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.file(key)
	if err := os.Rename(path, path+deletedSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	// A stale backup must not resurrect the record on the next corrupt read.
	if err := os.Remove(path + backupSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete backup for %s: %w", key, err)
	}
	return nil
}

func (s *JSONStore) quarantine(path string) (string, error) {
	dest := path + quarantineSuffix + s.now().UTC().Format("20060102T150405.000000000")
	return dest, os.Rename(path, dest)
}

// QuarantinedCount returns the number of corrupt files renamed aside, for diagnostics.
func (s *JSONStore) QuarantinedCount() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+jsonSuffix+quarantineSuffix+"*"))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.tmp-%d", path, time.Now().UTC().UnixNano())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	// Sync to ensure data is written to disk
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to sync storage: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}
