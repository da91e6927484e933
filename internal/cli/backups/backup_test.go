package backups

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/storage"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "nudge.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := cli.NewContext(store, t.TempDir())
	out := &bytes.Buffer{}
	ctx.Out = out
	if _, err := ctx.Prompts.Add("Walk", "", time.Now()); err != nil {
		t.Fatal(err)
	}
	return ctx, out
}

func reopen(t *testing.T, ctx *cli.Context) {
	t.Helper()
	if err := ctx.Store.Init(); err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No backups found") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out.String(), "Backup created: nudge-") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1 total, keeping most recent 14") {
		t.Errorf("unexpected listing %q", out.String())
	}
}

func TestBackupRestoreCmd(t *testing.T) {
	ctx, out := setupTestDB(t)

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	name := strings.TrimSpace(strings.TrimPrefix(out.String(), "✓ Backup created: "))

	if _, err := ctx.Prompts.Add("Read", "", time.Now()); err != nil {
		t.Fatal(err)
	}

	// Declining leaves the data alone.
	ctx.In = strings.NewReader("n\n")
	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: name}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Restore cancelled") {
		t.Errorf("unexpected output %q", out.String())
	}
	if len(ctx.Prompts.All()) != 2 {
		t.Fatal("declined restore should not change data")
	}

	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: name, Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Previous data saved as") {
		t.Errorf("unexpected output %q", out.String())
	}

	reopen(t, ctx)
	if got := len(ctx.Prompts.All()); got != 1 {
		t.Errorf("expected 1 prompt after restore, got %d", got)
	}

	if err := (&BackupRestoreCmd{BackupFile: "nudge-19990101-0000.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected error for missing backup")
	}
}

func TestBackupUnsupportedForPostgres(t *testing.T) {
	ctx := cli.NewContext(storage.NewPostgresStore("postgres://nudge@localhost/nudge"), t.TempDir())
	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Error("expected error creating a backup of a PostgreSQL store")
	}
}
