package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/nudge/internal/backup"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/notifier"
	"github.com/julianstephens/nudge/internal/scheduler"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/utils"
)

type Context struct {
	Store    storage.KeyValueStore
	Prompts  *storage.PromptStore
	Rules    *storage.RuleStore
	History  *storage.HistoryStore
	Actions  *storage.ActionLog
	Settings *storage.SettingsStore
	Queue    *notifier.QueueNotifier
	Sender   notifier.Sender

	// DataDir holds logs and backups.
	DataDir string
	// Timezone overrides the stored timezone setting when set.
	Timezone string
	Clock    func() time.Time
	Out      io.Writer
	In       io.Reader

	// planner is shared by every refresh through this context so planning stays single-flight.
	planner     *scheduler.DailyScheduler
	plannerOnce sync.Once
}

// NewContext wires the record stores and notifier around store.
func NewContext(store storage.KeyValueStore, dataDir string) *Context {
	return &Context{
		Store:    store,
		Prompts:  storage.NewPromptStore(store),
		Rules:    storage.NewRuleStore(store),
		History:  storage.NewHistoryStore(store),
		Actions:  storage.NewActionLog(store),
		Settings: storage.NewSettingsStore(store),
		Queue:    notifier.NewQueueNotifier(store),
		Sender:   notifier.NewTrayNotifier(),
		DataDir:  dataDir,
		Clock:    time.Now,
		Out:      os.Stdout,
		In:       os.Stdin,
	}
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Location returns the configured timezone and the settings it came from.
func (c *Context) Location() (*time.Location, models.Settings, error) {
	settings := c.Settings.Get()
	tz := settings.Timezone
	if c.Timezone != "" {
		tz = c.Timezone
	}
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		return nil, settings, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, settings, nil
}

// Now returns the current time in the configured timezone.
func (c *Context) Now() time.Time {
	loc, _, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	return c.Clock().In(loc)
}

// Scheduler returns the context's daily scheduler, built on first use and moved to the
// currently configured timezone on each call.
func (c *Context) Scheduler() (*scheduler.DailyScheduler, models.Settings, error) {
	loc, settings, err := c.Location()
	if err != nil {
		return nil, settings, err
	}
	if err := c.Queue.RegisterActionCategories([]notifier.ActionCategory{notifier.PromptActions()}); err != nil {
		return nil, settings, err
	}

	c.plannerOnce.Do(func() {
		c.planner = scheduler.New(scheduler.Deps{
			History:  c.History,
			Rules:    c.Rules,
			Notifier: c.Queue,
			Clock:    func() time.Time { return c.Clock() },
			Location: loc,
		})
	})
	c.planner.SetLocation(loc)
	return c.planner, settings, nil
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	source, ok := BackupSource(c.Store)
	if !ok {
		return
	}
	if _, err := backup.NewManager(source).CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// BackupSource returns the path the backup manager should snapshot. PostgreSQL stores
// are backed up by the server and have none.
func BackupSource(store storage.KeyValueStore) (string, bool) {
	switch s := store.(type) {
	case *storage.SQLiteStore, *storage.JSONStore:
		return s.Path(), true
	default:
		return "", false
	}
}

var weekdayNames = map[string]int{
	"sun": 1, "sunday": 1,
	"mon": 2, "monday": 2,
	"tue": 3, "tuesday": 3,
	"wed": 4, "wednesday": 4,
	"thu": 5, "thursday": 5,
	"fri": 6, "friday": 6,
	"sat": 7, "saturday": 7,
}

// ParseWeekday parses a weekday name or number (1=Sunday..7=Saturday)
func ParseWeekday(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[s]; ok {
		return wd, nil
	}
	num, err := strconv.Atoi(s)
	if err == nil && num >= 1 && num <= 7 {
		return num, nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ParseClock parses HH:MM into hour and minute
func ParseClock(s string) (int, int, error) {
	t, err := time.Parse(constants.TimeFormat, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q (expected HH:MM)", s)
	}
	return t.Hour(), t.Minute(), nil
}

// FormatRule formats a recurrence rule into a human-readable string
func FormatRule(rule models.RecurrenceRule) string {
	if rule.IsEmpty() {
		return "always"
	}

	var parts []string
	if rule.Date != "" {
		kind := "on"
		if !rule.IsEffectivelyOneOff() {
			kind = "anchored"
		}
		parts = append(parts, fmt.Sprintf("%s %s", kind, rule.Date))
	}
	if rule.Weekday != nil {
		parts = append(parts, "every "+time.Weekday(*rule.Weekday-1).String())
	}
	if rule.HasTimeAnchor() {
		parts = append(parts, fmt.Sprintf("around %02d:%02d (±%d min)", *rule.TimeHour, *rule.TimeMinute, rule.EffectiveWindow()/2))
	}
	if rule.Month != nil && rule.Day != nil {
		parts = append(parts, fmt.Sprintf("yearly %s %d", time.Month(*rule.Month), *rule.Day))
	}
	if rule.MonthlyIsLastDay != nil && *rule.MonthlyIsLastDay {
		parts = append(parts, "monthly on the last day")
	} else if rule.MonthlyDay != nil {
		parts = append(parts, fmt.Sprintf("monthly on day %d", *rule.MonthlyDay))
	}
	if len(parts) == 0 {
		return "always"
	}
	return strings.Join(parts, ", ")
}
