package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/notifier"
	"github.com/julianstephens/nudge/internal/utils"
)

// HistoryStore loads and persists the planning history.
type HistoryStore interface {
	Load() *models.ScheduleHistory
	Save(h *models.ScheduleHistory) bool
}

// RuleSource provides the recurrence rules keyed by prompt text.
type RuleSource interface {
	All() models.RuleSet
}

// Options configures one planning run.
type Options struct {
	DayStartHour    int
	DayEndHour      int
	NoRepeatDays    int
	IntervalMinutes int
	JitterMinutes   int
}

func DefaultOptions() Options {
	return Options{
		DayStartHour:    constants.DefaultDayStartHour,
		DayEndHour:      constants.DefaultDayEndHour,
		NoRepeatDays:    constants.DefaultNoRepeatDays,
		IntervalMinutes: constants.DefaultIntervalMinutes,
		JitterMinutes:   constants.DefaultJitterMinutes,
	}
}

// OptionsFromSettings maps persisted settings to planning options.
func OptionsFromSettings(s models.Settings) Options {
	return Options{
		DayStartHour:    s.DayStartHour,
		DayEndHour:      s.DayEndHour,
		NoRepeatDays:    s.NoRepeatDays,
		IntervalMinutes: s.IntervalMinutes,
		JitterMinutes:   s.JitterMinutes,
	}
}

// State is where a refresh ended.
type State string

const (
	StateAlreadyPlanned State = "already_planned"
	StatePlanned        State = "planned"
	StateNoCandidates   State = "no_candidates"
	StateNoSlots        State = "no_slots"
)

// Result summarizes a refresh.
type Result struct {
	State     State
	DayKey    string
	Cancelled int
	Slots     []time.Time
	Scheduled []string
	Skipped   int // slots with no eligible prompt
	Failed    int // slots the notifier rejected
	Persisted bool
}

// Deps are the collaborators of a DailyScheduler. Clock, Location and Jitter default to
// time.Now, time.Local and DefaultJitter.
type Deps struct {
	History  HistoryStore
	Rules    RuleSource
	Notifier notifier.Notifier
	Clock    func() time.Time
	Location *time.Location
	Jitter   JitterSource
}

// DailyScheduler plans the day's prompt notifications.
type DailyScheduler struct {
	history  HistoryStore
	rules    RuleSource
	notifier notifier.Notifier
	now      func() time.Time
	loc      *time.Location
	jitter   JitterSource

	mu sync.Mutex
}

func New(deps Deps) *DailyScheduler {
	s := &DailyScheduler{
		history:  deps.History,
		rules:    deps.Rules,
		notifier: deps.Notifier,
		now:      deps.Clock,
		loc:      deps.Location,
		jitter:   deps.Jitter,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.jitter == nil {
		s.jitter = DefaultJitter
	}
	return s
}

// SetLocation changes the timezone used for later plans. It waits for a running plan.
func (s *DailyScheduler) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loc = loc
}

// RefreshToday plans today's notifications unless today already has a plan. With force the
// existing plan is cancelled and rebuilt. Failures are logged and never returned.
func (s *DailyScheduler) RefreshToday(allPrompts []models.Prompt, opts Options, force bool) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().In(s.loc)
	today := utils.DayKey(now, s.loc)
	result := Result{DayKey: today}

	h := s.history.Load()
	if !h.ShouldPlan(today, force) {
		logger.Debug("Day already planned", "day", today)
		result.State = StateAlreadyPlanned
		return result
	}

	stale := h.BeginReplan()
	if len(stale) > 0 {
		if err := s.notifier.CancelPending(stale); err != nil {
			logger.Warn("Failed to cancel pending notifications", "count", len(stale), "error", err)
		}
		result.Cancelled = len(stale)
	}

	candidates := nonBlank(allPrompts)
	if len(candidates) == 0 {
		logger.Info("No prompts to schedule", "day", today)
		result.State = StateNoCandidates
		return s.persist(h, today, nil, h.LastText, result)
	}

	if opts.NoRepeatDays > 0 {
		candidates = suppressRecent(candidates, h, now.Add(-time.Duration(opts.NoRepeatDays)*24*time.Hour))
	}

	windowStart, windowEnd := planningWindow(now, opts, s.loc)
	slots := GenerateSlots(windowStart, windowEnd, opts.IntervalMinutes, opts.JitterMinutes, s.jitter)
	if len(slots) == 0 {
		logger.Info("No slots in window", "day", today, "start", windowStart, "end", windowEnd)
		result.State = StateNoSlots
		return s.persist(h, today, nil, h.LastText, result)
	}
	result.Slots = slots

	r := NewRand(Seed(today, len(candidates)))
	pool := Shuffle(candidates, r)

	var rules models.RuleSet
	if s.rules != nil {
		rules = s.rules.All()
	}

	lastText := h.LastText
	scheduled := make([]string, 0, len(slots))
	for i, at := range slots {
		prompt, ok := PickOne(Eligible(pool, rules, at, s.loc), lastText, r)
		if !ok {
			result.Skipped++
			continue
		}

		id := NotificationID(at, i, prompt.ID, s.loc)
		userInfo := map[string]string{
			constants.UserInfoPromptID:   prompt.ID,
			constants.UserInfoPromptText: prompt.Text,
		}
		if err := s.notifier.ScheduleOneOff(id, prompt.Text, at, userInfo, constants.PromptActionsCategory); err != nil {
			logger.Warn("Failed to schedule notification", "id", id, "error", err)
			result.Failed++
			continue
		}

		scheduled = append(scheduled, id)
		text := prompt.Text
		lastText = &text
		h.RecordShown(prompt.ID, now)
	}

	logger.Info("Planned day", "day", today, "slots", len(slots), "scheduled", len(scheduled), "skipped", result.Skipped)
	result.State = StatePlanned
	return s.persist(h, today, scheduled, lastText, result)
}

func (s *DailyScheduler) persist(h *models.ScheduleHistory, today string, ids []string, lastText *string, result Result) Result {
	h.RecordPlan(today, ids, lastText)
	result.Scheduled = h.PendingIDs
	result.Persisted = s.history.Save(h)
	if !result.Persisted {
		logger.Warn("Plan not persisted; the day may be replanned", "day", today)
	}
	return result
}

// NotificationID builds the identifier for the prompt scheduled in slot index.
func NotificationID(at time.Time, index int, promptID string, loc *time.Location) string {
	return fmt.Sprintf("%s-%s-%d-%s", constants.NotificationIDPrefix, at.In(loc).Format(constants.NotificationSlotFormat), index, promptID)
}

// ParseNotificationID splits an id built by NotificationID into its slot time, slot index
// and prompt id.
func ParseNotificationID(id string, loc *time.Location) (time.Time, int, string, error) {
	parts := strings.SplitN(id, "-", 5)
	if len(parts) != 5 || parts[0] != constants.NotificationIDPrefix || parts[4] == "" {
		return time.Time{}, 0, "", fmt.Errorf("malformed notification id %q", id)
	}
	if loc == nil {
		loc = time.Local
	}
	at, err := time.ParseInLocation(constants.NotificationSlotFormat, parts[1]+"-"+parts[2], loc)
	if err != nil {
		return time.Time{}, 0, "", fmt.Errorf("malformed notification id %q: %w", id, err)
	}
	index, err := strconv.Atoi(parts[3])
	if err != nil || index < 0 {
		return time.Time{}, 0, "", fmt.Errorf("malformed notification id %q: bad slot index", id)
	}
	return at, index, parts[4], nil
}

func nonBlank(prompts []models.Prompt) []models.Prompt {
	var out []models.Prompt
	for _, p := range prompts {
		if !p.IsBlank() {
			out = append(out, p)
		}
	}
	return out
}

// suppressRecent drops prompts shown after cutoff. If every prompt was, nothing is dropped.
func suppressRecent(candidates []models.Prompt, h *models.ScheduleHistory, cutoff time.Time) []models.Prompt {
	var fresh []models.Prompt
	for _, p := range candidates {
		if !h.ShownSince(p.ID, cutoff) {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		logger.Debug("All prompts shown recently, ignoring no-repeat window")
		return candidates
	}
	return fresh
}

// planningWindow returns today's window starting no earlier than now. An inverted or
// exhausted window is widened to one hour.
func planningWindow(now time.Time, opts Options, loc *time.Location) (time.Time, time.Time) {
	start := utils.AtClock(now, opts.DayStartHour, 0, loc)
	if now.After(start) {
		start = now
	}
	end := utils.AtClock(now, opts.DayEndHour, 0, loc)
	if !end.After(start) {
		end = start.Add(time.Hour)
	}
	return start, end
}
