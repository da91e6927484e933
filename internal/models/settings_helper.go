package models

import (
	"fmt"
	"sort"
	"strconv"
)

const (
	SettingDayStartHour         = "day_start_hour"
	SettingDayEndHour           = "day_end_hour"
	SettingNoRepeatDays         = "no_repeat_days"
	SettingIntervalMinutes      = "interval_minutes"
	SettingJitterMinutes        = "jitter_minutes"
	SettingNotificationsEnabled = "notifications_enabled"
	SettingDispatchGraceMin     = "dispatch_grace_min"
	SettingTimezone             = "timezone"
	SettingRefreshSpec          = "refresh_spec"
	SettingDispatchSpec         = "dispatch_spec"
)

// SetSetting assigns a single setting from its string form.
func SetSetting(settings *Settings, key, value string) error {
	intField := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	switch key {
	case SettingDayStartHour:
		return intField(&settings.DayStartHour)
	case SettingDayEndHour:
		return intField(&settings.DayEndHour)
	case SettingNoRepeatDays:
		return intField(&settings.NoRepeatDays)
	case SettingIntervalMinutes:
		return intField(&settings.IntervalMinutes)
	case SettingJitterMinutes:
		return intField(&settings.JitterMinutes)
	case SettingDispatchGraceMin:
		return intField(&settings.DispatchGraceMin)
	case SettingNotificationsEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		settings.NotificationsEnabled = b
	case SettingTimezone:
		settings.Timezone = value
	case SettingRefreshSpec:
		settings.RefreshSpec = value
	case SettingDispatchSpec:
		settings.DispatchSpec = value
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		SettingDayStartHour:         strconv.Itoa(settings.DayStartHour),
		SettingDayEndHour:           strconv.Itoa(settings.DayEndHour),
		SettingNoRepeatDays:         strconv.Itoa(settings.NoRepeatDays),
		SettingIntervalMinutes:      strconv.Itoa(settings.IntervalMinutes),
		SettingJitterMinutes:        strconv.Itoa(settings.JitterMinutes),
		SettingNotificationsEnabled: strconv.FormatBool(settings.NotificationsEnabled),
		SettingDispatchGraceMin:     strconv.Itoa(settings.DispatchGraceMin),
		SettingTimezone:             settings.Timezone,
		SettingRefreshSpec:          settings.RefreshSpec,
		SettingDispatchSpec:         settings.DispatchSpec,
	}
}

// SettingKeys returns the known setting keys in sorted order.
func SettingKeys() []string {
	m := SettingsToMap(Settings{})
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
