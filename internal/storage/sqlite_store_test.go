package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func setupTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreSaveLoad(t *testing.T) {
	store := setupTestSQLiteStore(t)

	var missing map[string]int
	if ok, err := store.Load("counts", &missing); err != nil || ok {
		t.Fatalf("expected missing record, got ok=%v err=%v", ok, err)
	}

	if err := store.Save("counts", map[string]int{"a": 1}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := store.Save("counts", map[string]int{"a": 2}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	var got map[string]int
	ok, err := store.Load("counts", &got)
	if err != nil || !ok {
		t.Fatalf("failed to load: ok=%v err=%v", ok, err)
	}
	if got["a"] != 2 {
		t.Errorf("expected latest value 2, got %d", got["a"])
	}
}

func TestSQLiteStoreQuarantineAndRecover(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.Save("items", []string{"good"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save("items", []string{"newer"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDB().Exec(`UPDATE kv SET value = 'garbage' WHERE key = 'items'`); err != nil {
		t.Fatal(err)
	}

	var got []string
	ok, err := store.Load("items", &got)
	if err != nil || !ok {
		t.Fatalf("expected recovery from backup, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0] != "good" {
		t.Errorf("expected backup value, got %v", got)
	}

	n, err := store.QuarantinedCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 quarantined row, got %d", n)
	}
}

func TestSQLiteStoreCorruptWithoutBackup(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if _, err := store.GetDB().Exec(`INSERT INTO kv (key, value, updated_at) VALUES ('items', '{', '')`); err != nil {
		t.Fatal(err)
	}
	var got []string
	if _, err := store.Load("items", &got); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestSQLiteStoreRefusesEmptyOverwrite(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.Save("items", []string{"keep"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save("items", []string{}); !errors.Is(err, ErrEmptyOverwrite) {
		t.Fatalf("expected ErrEmptyOverwrite, got %v", err)
	}
}

func TestSQLiteStoreDelete(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.Save("items", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save("items", []string{"b"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("items"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	var got []string
	if ok, err := store.Load("items", &got); err != nil || ok {
		t.Fatalf("deleted record should be absent, got ok=%v err=%v", ok, err)
	}
	if err := store.Delete("items"); err != nil {
		t.Errorf("second delete failed: %v", err)
	}
}

func TestSQLiteStoreNotInitialized(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "never.db"))
	var v []string
	if _, err := store.Load("items", &v); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if err := store.Save("items", v); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}
