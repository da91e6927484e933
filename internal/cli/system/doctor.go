package system

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/nudge/internal/backup"
	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/cli/schedule"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/notifier"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/utils"
)

var recordKeys = []string{
	constants.KeyPrompts,
	constants.KeyRules,
	constants.KeyHistory,
	constants.KeyActions,
	constants.KeySettings,
	constants.KeyPending,
}

// trayConfigDir is swapped in tests.
var trayConfigDir = notifier.GetTrayAppConfigDir

type check struct {
	name    string
	run     func(ctx *cli.Context) error
	warning bool
}

var checks = []check{
	{name: "Storage reachable", run: checkStoreReachable},
	{name: "Records readable", run: checkRecordsReadable},
	{name: "Quarantine empty", run: checkQuarantine, warning: true},
	{name: "Settings valid", run: checkSettings},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Backups present", run: checkBackupsPresent, warning: true},
	{name: "Today planned", run: checkTodayPlanned, warning: true},
	{name: "Tray app running", run: checkTrayApp, warning: true},
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	reachable := true
	for _, c := range checks {
		if !reachable && c.name != "Clock/timezone" {
			ctx.Printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warning:
			ctx.Println(cli.WarningStyle.Render(fmt.Sprintf("⚠ %s: WARNING", c.name)))
			ctx.Printf("   %v\n", err)
		default:
			ctx.Println(cli.DangerStyle.Render(fmt.Sprintf("❌ %s: FAIL", c.name)))
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Storage reachable" {
				reachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Init(); err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	if sqliteStore, ok := ctx.Store.(*storage.SQLiteStore); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkRecordsReadable(ctx *cli.Context) error {
	for _, key := range recordKeys {
		var raw json.RawMessage
		if _, err := ctx.Store.Load(key, &raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func checkQuarantine(ctx *cli.Context) error {
	counter, ok := ctx.Store.(interface{ QuarantinedCount() (int, error) })
	if !ok {
		return nil
	}
	n, err := counter.QuarantinedCount()
	if err != nil {
		return fmt.Errorf("failed to count quarantined records: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%d corrupt records were set aside; inspect them with 'nudge inspect path'", n)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings := ctx.Settings.Get()
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := schedule.ValidateSpec(settings.RefreshSpec); err != nil {
		return err
	}
	return schedule.ValidateSpec(settings.DispatchSpec)
}

func checkClockTimezone(ctx *cli.Context) error {
	loc, _, err := ctx.Location()
	if err != nil {
		return err
	}
	now := ctx.Clock()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format("2006-01-02"))
	}
	if !utils.ValidateTimezone(loc.String()) {
		return fmt.Errorf("timezone %s cannot be reloaded", loc)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	source, ok := cli.BackupSource(ctx.Store)
	if !ok {
		return nil
	}
	backups, err := backup.NewManager(source).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found; run 'nudge backup create'")
	}
	return nil
}

func checkTodayPlanned(ctx *cli.Context) error {
	loc, _, err := ctx.Location()
	if err != nil {
		return err
	}
	today := utils.DayKey(ctx.Clock(), loc)
	h := ctx.History.Load()
	if h.LastPlanDate == nil || *h.LastPlanDate != today {
		return fmt.Errorf("%s has not been planned; run 'nudge refresh' or start the daemon", today)
	}
	return nil
}

func checkTrayApp(ctx *cli.Context) error {
	dir, err := trayConfigDir()
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, constants.NotifierLockfileName)); err != nil {
		return fmt.Errorf("tray app lockfile not found in %s; notifications cannot be delivered", dir)
	}
	return nil
}
