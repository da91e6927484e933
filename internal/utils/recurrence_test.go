package utils

import (
	"testing"
	"time"

	"github.com/julianstephens/nudge/internal/models"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestIsActive_EmptyRuleAlwaysActive(t *testing.T) {
	rule := models.RecurrenceRule{}
	for _, now := range []time.Time{at(2025, 1, 6, 0, 0), at(2025, 7, 19, 13, 37), at(2030, 12, 31, 23, 59)} {
		if !IsActive(rule, now, time.UTC) {
			t.Errorf("expected empty rule to be active at %v", now)
		}
	}
}

func TestIsActive_WeekdayAndTimeWindow(t *testing.T) {
	// 2025-01-06 is a Monday
	rule := models.RecurrenceRule{
		Weekday:       models.IntPtr(2),
		TimeHour:      models.IntPtr(9),
		TimeMinute:    models.IntPtr(0),
		WindowMinutes: 60,
	}

	if !IsActive(rule, at(2025, 1, 6, 8, 35), time.UTC) {
		t.Error("Expected rule to be active Monday 08:35")
	}
	if !IsActive(rule, at(2025, 1, 6, 9, 25), time.UTC) {
		t.Error("Expected rule to be active Monday 09:25")
	}
	if IsActive(rule, at(2025, 1, 6, 8, 0), time.UTC) {
		t.Error("Expected rule to be inactive Monday 08:00")
	}
	if IsActive(rule, at(2025, 1, 7, 9, 0), time.UTC) {
		t.Error("Expected rule to be inactive Tuesday 09:00")
	}
}

func TestIsActive_WindowEdgesInclusive(t *testing.T) {
	rule := models.RecurrenceRule{TimeHour: models.IntPtr(12), TimeMinute: models.IntPtr(0), WindowMinutes: 30}

	if !IsActive(rule, at(2025, 3, 3, 11, 45), time.UTC) {
		t.Error("lower edge should be active")
	}
	if !IsActive(rule, at(2025, 3, 3, 12, 15), time.UTC) {
		t.Error("upper edge should be active")
	}
	if IsActive(rule, at(2025, 3, 3, 12, 15).Add(time.Second), time.UTC) {
		t.Error("one second past the upper edge should be inactive")
	}
}

func TestIsActive_OddWindowFloorsHalf(t *testing.T) {
	// 5/2 = 2 minutes on each side
	rule := models.RecurrenceRule{TimeHour: models.IntPtr(10), TimeMinute: models.IntPtr(0), WindowMinutes: 5}

	if !IsActive(rule, at(2025, 3, 3, 10, 2), time.UTC) {
		t.Error("10:02 should be inside a 5 minute window")
	}
	if IsActive(rule, at(2025, 3, 3, 10, 3), time.UTC) {
		t.Error("10:03 should be outside a 5 minute window")
	}
}

func TestIsActive_DefaultWindow(t *testing.T) {
	rule := models.RecurrenceRule{TimeHour: models.IntPtr(18), TimeMinute: models.IntPtr(0)}

	if !IsActive(rule, at(2025, 3, 3, 17, 0), time.UTC) {
		t.Error("17:00 should be inside the default 120 minute window")
	}
	if IsActive(rule, at(2025, 3, 3, 16, 59), time.UTC) {
		t.Error("16:59 should be outside the default window")
	}
}

func TestIsActive_HourWithoutMinuteIsNotAnAnchor(t *testing.T) {
	rule := models.RecurrenceRule{TimeHour: models.IntPtr(6)}
	if !IsActive(rule, at(2025, 3, 3, 22, 0), time.UTC) {
		t.Error("a rule with only an hour should be active all day")
	}
}

func TestIsActive_DateGate(t *testing.T) {
	rule := models.RecurrenceRule{Date: "2025-01-10"}

	if !IsActive(rule, at(2025, 1, 10, 0, 0), time.UTC) {
		t.Error("expected active at start of the date")
	}
	if !IsActive(rule, at(2025, 1, 10, 23, 59), time.UTC) {
		t.Error("expected active at end of the date")
	}
	if IsActive(rule, at(2025, 1, 11, 0, 0), time.UTC) {
		t.Error("expected inactive the day after")
	}
}

func TestIsActive_ConflictingDateAndWeekday(t *testing.T) {
	// 2025-01-10 is a Friday; the weekday gate asks for Monday, so no instant passes both.
	rule := models.RecurrenceRule{Date: "2025-01-10", Weekday: models.IntPtr(2)}

	if IsActive(rule, at(2025, 1, 10, 12, 0), time.UTC) {
		t.Error("date matches but weekday does not")
	}
	if IsActive(rule, at(2025, 1, 13, 12, 0), time.UTC) {
		t.Error("weekday matches but date does not")
	}
}

func TestIsActive_YearlyAndMonthlyFieldsNotEvaluated(t *testing.T) {
	rule := models.RecurrenceRule{
		Month:            models.IntPtr(12),
		Day:              models.IntPtr(25),
		MonthlyDay:       models.IntPtr(1),
		MonthlyIsLastDay: models.BoolPtr(true),
	}
	if !IsActive(rule, at(2025, 6, 15, 12, 0), time.UTC) {
		t.Error("yearly and monthly fields should not gate eligibility")
	}
}

func TestIsActive_UsesCalendarLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	rule := models.RecurrenceRule{Date: "2025-01-10"}

	// 2025-01-09 20:00 UTC is 2025-01-10 05:00 in Tokyo
	now := at(2025, 1, 9, 20, 0)
	if !IsActive(rule, now, tokyo) {
		t.Error("expected the Tokyo calendar day to match")
	}
	if IsActive(rule, now, time.UTC) {
		t.Error("expected the UTC calendar day not to match")
	}
}

func TestShouldAutoDelete(t *testing.T) {
	rule := models.RecurrenceRule{Date: "2025-01-10", OneOff: models.BoolPtr(true)}

	if ShouldAutoDelete(rule, at(2025, 1, 10, 23, 59), time.UTC) {
		t.Error("should not delete before the day ends")
	}
	if !ShouldAutoDelete(rule, at(2025, 1, 11, 0, 1), time.UTC) {
		t.Error("should delete after the day ends")
	}
}

func TestShouldAutoDelete_LegacyDefault(t *testing.T) {
	implicit := models.RecurrenceRule{Date: "2025-01-10"}
	if !ShouldAutoDelete(implicit, at(2025, 1, 12, 0, 0), time.UTC) {
		t.Error("a dated rule without one_off should be treated as one-off")
	}

	recurring := models.RecurrenceRule{Date: "2025-01-10", OneOff: models.BoolPtr(false)}
	if ShouldAutoDelete(recurring, at(2025, 1, 12, 0, 0), time.UTC) {
		t.Error("an explicitly recurring rule should never auto-delete")
	}

	undated := models.RecurrenceRule{OneOff: models.BoolPtr(true)}
	if ShouldAutoDelete(undated, at(2030, 1, 1, 0, 0), time.UTC) {
		t.Error("a one-off rule without a date cannot expire")
	}
}
