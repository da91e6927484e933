package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/nudge/internal/models"
)

// RuleFlags are the recurrence flags shared by "prompt add" and "rule set".
type RuleFlags struct {
	At         string `help:"Anchor time (HH:MM); the prompt fires within the window around it."`
	Window     int    `help:"Window width in minutes around --at (default 120)."`
	Weekday    string `help:"Only on this weekday (name or 1=Sunday..7=Saturday)."`
	Date       string `help:"Only on this date (YYYY-MM-DD)."`
	Recurring  bool   `help:"Keep a --date rule after its day passes."`
	Yearly     string `help:"Yearly month/day (MM-DD), stored for export."`
	MonthlyDay int    `help:"Monthly day of month (1-31), stored for export."`
	LastDay    bool   `help:"Monthly on the last day, stored for export."`
}

// IsSet reports whether any rule flag was given.
func (f RuleFlags) IsSet() bool {
	return f.At != "" || f.Window != 0 || f.Weekday != "" || f.Date != "" || f.Recurring ||
		f.Yearly != "" || f.MonthlyDay != 0 || f.LastDay
}

// Build converts the flags into a validated rule.
func (f RuleFlags) Build() (models.RecurrenceRule, error) {
	rule := models.NewRule()

	if f.At != "" {
		hour, minute, err := ParseClock(f.At)
		if err != nil {
			return rule, err
		}
		rule.TimeHour = models.IntPtr(hour)
		rule.TimeMinute = models.IntPtr(minute)
	}
	if f.Window != 0 {
		if f.At == "" {
			return rule, fmt.Errorf("--window requires --at")
		}
		rule.WindowMinutes = f.Window
	}
	if f.Weekday != "" {
		wd, err := ParseWeekday(f.Weekday)
		if err != nil {
			return rule, err
		}
		rule.Weekday = models.IntPtr(wd)
	}
	if f.Date != "" {
		rule.Date = f.Date
		if f.Recurring {
			rule.OneOff = models.BoolPtr(false)
		}
	} else if f.Recurring {
		return rule, fmt.Errorf("--recurring requires --date")
	}
	if f.Yearly != "" {
		t, err := time.Parse("01-02", f.Yearly)
		if err != nil {
			return rule, fmt.Errorf("invalid yearly date %q (expected MM-DD)", f.Yearly)
		}
		rule.Month = models.IntPtr(int(t.Month()))
		rule.Day = models.IntPtr(t.Day())
	}
	if f.MonthlyDay != 0 {
		rule.MonthlyDay = models.IntPtr(f.MonthlyDay)
	}
	if f.LastDay {
		rule.MonthlyIsLastDay = models.BoolPtr(true)
	}

	if err := rule.Validate(); err != nil {
		return rule, err
	}
	return rule, nil
}
