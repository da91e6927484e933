package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nudge.db")

	store := storage.NewSQLiteStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer store.Close()

	prompts := storage.NewPromptStore(store)
	for _, text := range []string{"Stretch", "Drink water"} {
		if _, err := prompts.Add(text, "", time.Now()); err != nil {
			t.Fatalf("failed to insert test data: %v", err)
		}
	}
	return dbPath
}

func setupTestDataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")

	store := storage.NewJSONStore(dir)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	prompts := storage.NewPromptStore(store)
	for _, text := range []string{"Stretch", "Drink water"} {
		if _, err := prompts.Add(text, "", time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	if err := storage.NewSettingsStore(store).Save(models.DefaultSettings()); err != nil {
		t.Fatal(err)
	}
	return dir
}

func promptCount(t *testing.T, store storage.KeyValueStore) int {
	t.Helper()
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	return len(storage.NewPromptStore(store).All())
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)

	mgr := NewManager(dbPath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		t.Errorf("backup file was not created: %s", backupPath)
	}
	if !strings.HasPrefix(filepath.Base(backupPath), constants.BackupFilePrefix) {
		t.Errorf("unexpected backup name %s", backupPath)
	}

	if got := promptCount(t, storage.NewSQLiteStore(backupPath)); got != 2 {
		t.Errorf("expected 2 prompts in backup, got %d", got)
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local)
	numBackups := constants.MaxBackups + 5
	for i := 0; i < numBackups; i++ {
		mgr.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Errorf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}

	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups are not sorted correctly: backup %d is newer than backup %d", i, i-1)
		}
	}
	// The oldest five were removed.
	oldest := backups[len(backups)-1].Timestamp
	if !oldest.Equal(base.Add(5 * time.Hour)) {
		t.Errorf("expected oldest kept backup at %s, got %s", base.Add(5*time.Hour), oldest)
	}
}

func TestListBackups(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected 0 backups initially, got %d", len(backups))
	}

	for i := 0; i < 3; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	backups, err = mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Errorf("expected 3 backups, got %d", len(backups))
	}
	for _, backup := range backups {
		if backup.Path == "" || backup.Size == 0 || backup.Timestamp.IsZero() {
			t.Errorf("incomplete backup info %+v", backup)
		}
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	store := storage.NewSQLiteStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.NewPromptStore(store).Add("Walk", "", time.Now()); err != nil {
		t.Fatal(err)
	}
	store.Close()

	if got := promptCount(t, storage.NewSQLiteStore(dbPath)); got != 3 {
		t.Fatalf("expected 3 prompts before restore, got %d", got)
	}

	preRestore, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if preRestore == "" {
		t.Error("expected a pre-restore backup")
	}

	if got := promptCount(t, storage.NewSQLiteStore(dbPath)); got != 2 {
		t.Errorf("expected 2 prompts after restore, got %d", got)
	}
	if got := promptCount(t, storage.NewSQLiteStore(preRestore)); got != 3 {
		t.Errorf("expected pre-restore backup to hold 3 prompts, got %d", got)
	}
}

func TestVerifyBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if err := mgr.verifyBackup(backupPath); err != nil {
		t.Errorf("verifyBackup failed for valid backup: %v", err)
	}

	invalidPath := filepath.Join(mgr.GetBackupDir(), "invalid.db")
	if err := os.WriteFile(invalidPath, []byte("not a database"), 0600); err != nil {
		t.Fatalf("failed to create invalid file: %v", err)
	}
	if err := mgr.verifyBackup(invalidPath); err == nil {
		t.Error("verifyBackup should fail for invalid backup")
	}
	if _, err := mgr.RestoreBackup(invalidPath); err == nil {
		t.Error("RestoreBackup should refuse an invalid backup")
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	fixed := time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	paths := make(map[string]bool)
	for i := 0; i < 5; i++ {
		backupPath, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
		filename := filepath.Base(backupPath)
		if paths[filename] {
			t.Errorf("duplicate backup filename: %s", filename)
		}
		paths[filename] = true
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 5 {
		t.Errorf("expected all 5 backups to be listed, got %d", len(backups))
	}
}

func TestBackupWithNoDataStore(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("expected error backing up a missing database")
	}
}

func TestDirectoryBackupAndRestore(t *testing.T) {
	dir := setupTestDataDir(t)
	mgr := NewManager(dir)

	if got := mgr.GetBackupDir(); got != filepath.Join(dir, constants.BackupDirName) {
		t.Errorf("unexpected backup dir %s", got)
	}

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	info, err := os.Stat(backupPath)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected a snapshot directory at %s", backupPath)
	}
	for _, name := range []string{"prompts.json", "settings.json"} {
		if _, err := os.Stat(filepath.Join(backupPath, name)); err != nil {
			t.Errorf("snapshot is missing %s", name)
		}
	}

	// Change the data after the snapshot, including a new record.
	store := storage.NewJSONStore(dir)
	if _, err := storage.NewPromptStore(store).Add("Walk", "", time.Now()); err != nil {
		t.Fatal(err)
	}
	rule := models.NewRule()
	rule.Weekday = models.IntPtr(2)
	if err := storage.NewRuleStore(store).Set("Walk", rule); err != nil {
		t.Fatal(err)
	}

	backups, err := mgr.ListBackups()
	if err != nil || len(backups) != 1 {
		t.Fatalf("expected one backup listed, got %v (err %v)", backups, err)
	}

	if _, err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	if got := len(storage.NewPromptStore(store).All()); got != 2 {
		t.Errorf("expected 2 prompts after restore, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "rules.json")); !os.IsNotExist(err) {
		t.Error("records created after the snapshot should be removed")
	}
}

func TestDirectoryBackupRejectsInvalidSnapshot(t *testing.T) {
	dir := setupTestDataDir(t)
	mgr := NewManager(dir)

	bad := filepath.Join(mgr.GetBackupDir(), "nudge-20250106-0900")
	if err := os.MkdirAll(bad, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, "prompts.json"), []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.RestoreBackup(bad); err == nil {
		t.Error("expected restore of an invalid snapshot to fail")
	}
}
