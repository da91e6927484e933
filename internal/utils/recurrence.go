package utils

import (
	"time"

	"github.com/julianstephens/nudge/internal/models"
)

// IsActive reports whether rule allows its prompt to fire at now. The date, weekday and
// time-window gates are evaluated independently and must all pass. Without a time anchor
// the rule covers the whole day.
//
// Yearly (Month/Day) and monthly (MonthlyDay/MonthlyIsLastDay) fields are not evaluated.
func IsActive(rule models.RecurrenceRule, now time.Time, loc *time.Location) bool {
	loc = orLocal(loc)
	now = now.In(loc)

	if rule.Date != "" {
		date, err := ParseDateInLocation(rule.Date, loc)
		if err != nil {
			return false
		}
		if !SameDay(now, date, loc) {
			return false
		}
	}

	if rule.Weekday != nil && Weekday(now, loc) != *rule.Weekday {
		return false
	}

	if rule.HasTimeAnchor() {
		center := AtClock(now, *rule.TimeHour, *rule.TimeMinute, loc)
		// Integer division: odd widths lose a minute on each side.
		half := time.Duration(rule.EffectiveWindow()/2) * time.Minute
		if now.Before(center.Add(-half)) || now.After(center.Add(half)) {
			return false
		}
	}

	return true
}

// ShouldAutoDelete reports whether a one-off rule's day has fully passed.
func ShouldAutoDelete(rule models.RecurrenceRule, now time.Time, loc *time.Location) bool {
	if !rule.IsEffectivelyOneOff() || rule.Date == "" {
		return false
	}
	date, err := ParseDateInLocation(rule.Date, orLocal(loc))
	if err != nil {
		return false
	}
	return now.After(date.Add(24 * time.Hour))
}
