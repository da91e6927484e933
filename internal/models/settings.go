package models

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/constants"
)

// Settings represents application-wide settings
type Settings struct {
	DayStartHour         int    `json:"day_start_hour"`         // first hour of the notification window
	DayEndHour           int    `json:"day_end_hour"`           // last hour of the notification window
	NoRepeatDays         int    `json:"no_repeat_days"`         // suppress prompts shown within this many days
	IntervalMinutes      int    `json:"interval_minutes"`       // slot cadence
	JitterMinutes        int    `json:"jitter_minutes"`         // +/- random offset per slot
	NotificationsEnabled bool   `json:"notifications_enabled"`  // whether dispatch delivers anything
	DispatchGraceMin     int    `json:"dispatch_grace_min"`     // how late a queued notification may still be delivered
	Timezone             string `json:"timezone"`               // IANA timezone name or "Local"
	RefreshSpec          string `json:"refresh_spec,omitempty"` // cron spec for the daemon's refresh job
	DispatchSpec         string `json:"dispatch_spec,omitempty"`
}

// DefaultSettings returns the settings written on init.
func DefaultSettings() Settings {
	return Settings{
		DayStartHour:         constants.DefaultDayStartHour,
		DayEndHour:           constants.DefaultDayEndHour,
		NoRepeatDays:         constants.DefaultNoRepeatDays,
		IntervalMinutes:      constants.DefaultIntervalMinutes,
		JitterMinutes:        constants.DefaultJitterMinutes,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		DispatchGraceMin:     constants.DefaultDispatchGraceMin,
		Timezone:             constants.DefaultTimezone,
		RefreshSpec:          constants.DefaultRefreshSpec,
		DispatchSpec:         constants.DefaultDispatchSpec,
	}
}

// ApplyDefaultSettings fills fields whose zero value is not meaningful.
func ApplyDefaultSettings(settings *Settings) {
	if settings.IntervalMinutes <= 0 {
		settings.IntervalMinutes = constants.DefaultIntervalMinutes
	}
	if settings.DispatchGraceMin <= 0 {
		settings.DispatchGraceMin = constants.DefaultDispatchGraceMin
	}
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.RefreshSpec == "" {
		settings.RefreshSpec = constants.DefaultRefreshSpec
	}
	if settings.DispatchSpec == "" {
		settings.DispatchSpec = constants.DefaultDispatchSpec
	}
}

// Validate checks the scheduling fields.
func (s Settings) Validate() error {
	if s.DayStartHour < 0 || s.DayStartHour > 23 {
		return fmt.Errorf("day_start_hour must be between 0 and 23, got %d", s.DayStartHour)
	}
	if s.DayEndHour < 0 || s.DayEndHour > 23 {
		return fmt.Errorf("day_end_hour must be between 0 and 23, got %d", s.DayEndHour)
	}
	if s.IntervalMinutes <= 0 || s.IntervalMinutes > constants.MaxIntervalMinutes {
		return fmt.Errorf("interval_minutes must be between 1 and %d, got %d", constants.MaxIntervalMinutes, s.IntervalMinutes)
	}
	if s.JitterMinutes < 0 || s.JitterMinutes > constants.MaxJitterMinutes {
		return fmt.Errorf("jitter_minutes must be between 0 and %d, got %d", constants.MaxJitterMinutes, s.JitterMinutes)
	}
	if s.NoRepeatDays < 0 || s.NoRepeatDays > constants.MaxNoRepeatDays {
		return fmt.Errorf("no_repeat_days must be between 0 and %d, got %d", constants.MaxNoRepeatDays, s.NoRepeatDays)
	}
	return nil
}
