package models

import "time"

// ScheduleHistory is the persisted planning state for the scheduler.
type ScheduleHistory struct {
	LastShown    map[string]time.Time `json:"last_shown"`
	LastPlanDate *string              `json:"last_plan_date"` // YYYY-MM-DD
	PendingIDs   []string             `json:"pending_ids"`
	LastText     *string              `json:"last_text"`
}

// NewScheduleHistory returns an empty history.
func NewScheduleHistory() *ScheduleHistory {
	return &ScheduleHistory{
		LastShown:  make(map[string]time.Time),
		PendingIDs: []string{},
	}
}

// Normalize initializes nil collections after decoding.
func (h *ScheduleHistory) Normalize() {
	if h.LastShown == nil {
		h.LastShown = make(map[string]time.Time)
	}
	if h.PendingIDs == nil {
		h.PendingIDs = []string{}
	}
}

// ShouldPlan reports whether a plan must be built for today.
func (h *ScheduleHistory) ShouldPlan(today string, forceRebuild bool) bool {
	if forceRebuild {
		return true
	}
	return h.LastPlanDate == nil || *h.LastPlanDate != today
}

// BeginReplan returns the pending ids for cancellation and clears them.
func (h *ScheduleHistory) BeginReplan() []string {
	ids := h.PendingIDs
	h.PendingIDs = []string{}
	return ids
}

// RecordPlan marks today as planned. An empty plan still marks the day.
func (h *ScheduleHistory) RecordPlan(today string, scheduledIDs []string, lastText *string) {
	h.LastPlanDate = &today
	if scheduledIDs == nil {
		scheduledIDs = []string{}
	}
	h.PendingIDs = scheduledIDs
	h.LastText = lastText
}

// RecordShown upserts the last-shown instant for a prompt.
func (h *ScheduleHistory) RecordShown(promptID string, at time.Time) {
	if h.LastShown == nil {
		h.LastShown = make(map[string]time.Time)
	}
	h.LastShown[promptID] = at
}

// ShownSince reports whether the prompt was shown after cutoff.
func (h *ScheduleHistory) ShownSince(promptID string, cutoff time.Time) bool {
	at, ok := h.LastShown[promptID]
	return ok && at.After(cutoff)
}
