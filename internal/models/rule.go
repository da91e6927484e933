package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/nudge/internal/constants"
)

// RecurrenceRule holds the temporal gates for a prompt. Every field is optional; a rule
// with nothing set is always active.
//
// Month/Day (yearly) and MonthlyDay/MonthlyIsLastDay (monthly) are stored and
// round-tripped but not evaluated by utils.IsActive.
type RecurrenceRule struct {
	TimeHour         *int   `json:"time_hour,omitempty" yaml:"time_hour,omitempty"`
	TimeMinute       *int   `json:"time_minute,omitempty" yaml:"time_minute,omitempty"`
	Weekday          *int   `json:"weekday,omitempty" yaml:"weekday,omitempty"` // 1=Sunday..7=Saturday
	Date             string `json:"date,omitempty" yaml:"date,omitempty"`       // YYYY-MM-DD
	Month            *int   `json:"month,omitempty" yaml:"month,omitempty"`
	Day              *int   `json:"day,omitempty" yaml:"day,omitempty"`
	MonthlyDay       *int   `json:"monthly_day,omitempty" yaml:"monthly_day,omitempty"`
	MonthlyIsLastDay *bool  `json:"monthly_is_last_day,omitempty" yaml:"monthly_is_last_day,omitempty"`
	OneOff           *bool  `json:"one_off,omitempty" yaml:"one_off,omitempty"`
	WindowMinutes    int    `json:"window_minutes" yaml:"window_minutes,omitempty"`
}

// RuleSet maps prompt text to its rule.
type RuleSet map[string]RecurrenceRule

// NewRule returns an empty rule with the default window.
func NewRule() RecurrenceRule {
	return RecurrenceRule{WindowMinutes: constants.DefaultWindowMinutes}
}

// UnmarshalJSON applies the default window when the field is absent.
func (r *RecurrenceRule) UnmarshalJSON(data []byte) error {
	type plain RecurrenceRule
	aux := plain{WindowMinutes: constants.DefaultWindowMinutes}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = RecurrenceRule(aux)
	return nil
}

// EffectiveWindow returns the window width in minutes, falling back to the default.
func (r RecurrenceRule) EffectiveWindow() int {
	if r.WindowMinutes <= 0 {
		return constants.DefaultWindowMinutes
	}
	return r.WindowMinutes
}

// HasTimeAnchor reports whether both hour and minute are set.
func (r RecurrenceRule) HasTimeAnchor() bool {
	return r.TimeHour != nil && r.TimeMinute != nil
}

// IsEmpty reports whether no gate is set.
func (r RecurrenceRule) IsEmpty() bool {
	return r.TimeHour == nil && r.TimeMinute == nil && r.Weekday == nil && r.Date == "" &&
		r.Month == nil && r.Day == nil && r.MonthlyDay == nil && r.MonthlyIsLastDay == nil &&
		r.OneOff == nil
}

// IsEffectivelyOneOff resolves the one-off flag. When unset, a rule with a date is one-off.
func (r RecurrenceRule) IsEffectivelyOneOff() bool {
	if r.OneOff != nil {
		return *r.OneOff
	}
	return r.Date != ""
}

// Validate checks field ranges.
func (r RecurrenceRule) Validate() error {
	if err := checkRange("time_hour", r.TimeHour, 0, 23); err != nil {
		return err
	}
	if err := checkRange("time_minute", r.TimeMinute, 0, 59); err != nil {
		return err
	}
	if err := checkRange("weekday", r.Weekday, 1, 7); err != nil {
		return err
	}
	if err := checkRange("month", r.Month, 1, 12); err != nil {
		return err
	}
	if err := checkRange("day", r.Day, 1, 31); err != nil {
		return err
	}
	if err := checkRange("monthly_day", r.MonthlyDay, 1, 31); err != nil {
		return err
	}
	if r.Date != "" {
		if _, err := time.Parse(constants.DateFormat, r.Date); err != nil {
			return fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
		}
	}
	if r.WindowMinutes < 0 {
		return fmt.Errorf("window_minutes must be positive, got %d", r.WindowMinutes)
	}
	return nil
}

func checkRange(name string, v *int, lo, hi int) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, *v)
	}
	return nil
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}
