package backup

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/logger"
)

const (
	timestampFormat     = "20060102-150405"
	shortTimestampFmt   = "20060102-1504"
	restoreTempSuffix   = ".restore.tmp"
	jsonRecordExtension = ".json"
)

// BackupInfo contains information about a backup
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager creates, lists and restores backups of a data store. A source ending in .db is
// backed up as a SQLite database; any other source is a directory of JSON records and is
// snapshotted into a backup directory.
type Manager struct {
	source    string
	sqlite    bool
	backupDir string
	now       func() time.Time
}

// NewManager creates a backup manager for the store at source
func NewManager(source string) *Manager {
	m := &Manager{
		source: source,
		sqlite: strings.HasSuffix(source, constants.BackupFileSuffix),
		now:    time.Now,
	}
	if m.sqlite {
		m.backupDir = filepath.Join(filepath.Dir(source), constants.BackupDirName)
	} else {
		m.backupDir = filepath.Join(source, constants.BackupDirName)
	}
	return m
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

func (m *Manager) suffix() string {
	if m.sqlite {
		return constants.BackupFileSuffix
	}
	return ""
}

// CreateBackup creates a new backup and rotates old ones
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(false)
}

// createBackup skips rotation when called from a restore so the pre-restore copy survives.
func (m *Manager) createBackup(skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := os.Stat(m.source); os.IsNotExist(err) {
		return "", fmt.Errorf("data store does not exist: %s", m.source)
	}

	backupPath, err := m.uniqueBackupPath()
	if err != nil {
		return "", err
	}

	if m.sqlite {
		err = m.backupDatabase(backupPath)
	} else {
		err = m.snapshotDirectory(backupPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up data store: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	logger.Info("Created backup", "path", backupPath)
	return backupPath, nil
}

func (m *Manager) uniqueBackupPath() (string, error) {
	now := m.now()
	name := func(ts string, counter int) string {
		if counter > 0 {
			return filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, ts, counter, m.suffix()))
		}
		return filepath.Join(m.backupDir, constants.BackupFilePrefix+ts+m.suffix())
	}

	path := name(now.Format(shortTimestampFmt), 0)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	ts := now.Format(timestampFormat)
	for counter := 0; counter <= 100; counter++ {
		path = name(ts, counter)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename")
}

// backupDatabase copies the database with VACUUM INTO, falling back to a file copy
func (m *Manager) backupDatabase(destPath string) error {
	srcDB, err := sql.Open("sqlite", m.source+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer srcDB.Close()

	var count int
	if err := srcDB.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := srcDB.Exec("VACUUM INTO ?", destPath); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		srcDB.Close()
		return copyFile(m.source, destPath)
	}
	return nil
}

// snapshotDirectory copies every JSON record of the data directory into destDir
func (m *Manager) snapshotDirectory(destDir string) error {
	records, err := listRecords(m.source)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0700); err != nil {
		return err
	}
	for _, name := range records {
		if err := copyFile(filepath.Join(m.source, name), filepath.Join(destDir, name)); err != nil {
			os.RemoveAll(destDir)
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}
	}
	return nil
}

// listRecords returns the live record files of a JSON data directory
func listRecords(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), jsonRecordExtension) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// ListBackups returns all available backups, newest first
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() == m.sqlite {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, m.suffix()) {
			continue
		}

		timestamp, ok := parseBackupTimestamp(strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), m.suffix()))
		if !ok {
			continue
		}

		path := filepath.Join(m.backupDir, name)
		size, err := pathSize(path)
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Path:      path,
			Timestamp: timestamp,
			Size:      size,
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// parseBackupTimestamp accepts YYYYMMDD-HHMM and YYYYMMDD-HHMMSS with an optional -N counter
func parseBackupTimestamp(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) == 3 {
		s = parts[0] + "-" + parts[1]
	}
	for _, layout := range []string{shortTimestampFmt, timestampFormat} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func pathSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if fi, err := e.Info(); err == nil && !fi.IsDir() {
			total += fi.Size()
		}
	}
	return total, nil
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.RemoveAll(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup replaces the data store with a backup. The current store is backed up first;
// the path of that safety copy is returned when one was made.
func (m *Manager) RestoreBackup(backupPath string) (string, error) {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", fmt.Errorf("backup does not exist: %s", backupPath)
	}

	if err := m.verifyBackup(backupPath); err != nil {
		return "", fmt.Errorf("backup is corrupted or invalid: %w", err)
	}

	var preRestore string
	if _, err := os.Stat(m.source); err == nil {
		path, err := m.createBackup(true)
		if err != nil {
			return "", fmt.Errorf("failed to back up current data before restore: %w", err)
		}
		preRestore = path
	}

	var err error
	if m.sqlite {
		err = m.restoreDatabase(backupPath)
	} else {
		err = m.restoreDirectory(backupPath)
	}
	if err != nil {
		return preRestore, err
	}

	logger.Info("Restored backup", "path", backupPath, "pre_restore", preRestore)
	return preRestore, nil
}

func (m *Manager) restoreDatabase(backupPath string) error {
	tempPath := m.source + restoreTempSuffix
	if err := copyFile(backupPath, tempPath); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tempPath, m.source); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}

func (m *Manager) restoreDirectory(backupPath string) error {
	if err := os.MkdirAll(m.source, 0700); err != nil {
		return err
	}
	records, err := listRecords(backupPath)
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(records))
	for _, name := range records {
		keep[name] = true
		dest := filepath.Join(m.source, name)
		tempPath := dest + restoreTempSuffix
		if err := copyFile(filepath.Join(backupPath, name), tempPath); err != nil {
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}
		if err := os.Rename(tempPath, dest); err != nil {
			os.Remove(tempPath)
			return fmt.Errorf("failed to restore %s: %w", name, err)
		}
	}

	// Records created after the backup was taken are removed; the pre-restore backup keeps them.
	current, err := listRecords(m.source)
	if err != nil {
		return err
	}
	for _, name := range current {
		if !keep[name] {
			if err := os.Remove(filepath.Join(m.source, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
		}
	}
	return nil
}

// verifyBackup checks that a backup is readable: a valid SQLite database, or a directory of
// valid JSON records
func (m *Manager) verifyBackup(path string) error {
	if !m.sqlite {
		records, err := listRecords(path)
		if err != nil {
			return err
		}
		for _, name := range records {
			data, err := os.ReadFile(filepath.Join(path, name))
			if err != nil {
				return err
			}
			if !json.Valid(data) {
				return fmt.Errorf("%s is not valid JSON", name)
			}
		}
		return nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}

	// Sync to ensure data is written to disk
	return destFile.Sync()
}
