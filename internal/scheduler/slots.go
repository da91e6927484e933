package scheduler

import (
	"time"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/utils"
)

// GenerateSlots returns the fire instants for [start, end]. Candidates are aligned to
// multiples of intervalMinutes from midnight in start's location, jittered by up to
// jitterMinutes either way and clamped into the window. The result is strictly increasing and holds at most
// MaxPendingNotifications instants. Intervals longer than a day give no slots and jitter
// is capped at MaxJitterMinutes.
func GenerateSlots(start, end time.Time, intervalMinutes, jitterMinutes int, jitter JitterSource) []time.Time {
	if intervalMinutes <= 0 || intervalMinutes > constants.MaxIntervalMinutes || !end.After(start) {
		return nil
	}
	if jitter == nil {
		jitter = DefaultJitter
	}
	jitterMinutes = max(0, min(jitterMinutes, constants.MaxJitterMinutes))

	step := time.Duration(intervalMinutes) * time.Minute
	midnight := utils.StartOfDay(start, start.Location())
	k := (start.Sub(midnight) + step - 1) / step
	candidate := midnight.Add(k * step)

	var slots []time.Time
	for candidate.Before(end) && len(slots) < constants.MaxPendingNotifications {
		fire := candidate
		if jitterMinutes > 0 {
			offset := jitter.IntN(2*jitterMinutes+1) - jitterMinutes
			fire = fire.Add(time.Duration(offset) * time.Minute)
		}
		if fire.Before(start) {
			fire = start
		}
		if fire.After(end) {
			fire = end
		}

		if n := len(slots); n > 0 && !fire.After(slots[n-1]) {
			fire = slots[n-1].Add(step)
			if fire.After(end) {
				break
			}
		}

		slots = append(slots, fire)
		candidate = candidate.Add(step)
	}
	return slots
}
