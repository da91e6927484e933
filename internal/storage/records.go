package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
)

// PromptStore persists the prompt list.
type PromptStore struct {
	kv KeyValueStore
}

func NewPromptStore(kv KeyValueStore) *PromptStore {
	return &PromptStore{kv: kv}
}

// All returns every stored prompt in insertion order.
func (s *PromptStore) All() []models.Prompt {
	prompts, _ := Load[[]models.Prompt](s.kv, constants.KeyPrompts)
	return prompts
}

// NewPrompt builds a prompt with a fresh id and trimmed text.
func NewPrompt(text, category string, now time.Time) (models.Prompt, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Prompt{}, fmt.Errorf("prompt text cannot be empty")
	}
	return models.Prompt{
		ID:        uuid.New().String(),
		Text:      text,
		Category:  category,
		CreatedAt: now,
	}, nil
}

// Add appends a prompt with a fresh id.
func (s *PromptStore) Add(text, category string, now time.Time) (models.Prompt, error) {
	p, err := NewPrompt(text, category, now)
	if err != nil {
		return models.Prompt{}, err
	}
	prompts := append(s.All(), p)
	if err := s.kv.Save(constants.KeyPrompts, prompts); err != nil {
		return models.Prompt{}, err
	}
	return p, nil
}

// Delete removes the prompt with the given id (or unique id prefix).
func (s *PromptStore) Delete(id string) (models.Prompt, error) {
	prompts := s.All()
	idx := -1
	for i, p := range prompts {
		if p.ID == id || (len(id) >= 4 && strings.HasPrefix(p.ID, id)) {
			if idx != -1 {
				return models.Prompt{}, fmt.Errorf("prompt id prefix is ambiguous: %s", id)
			}
			idx = i
		}
	}
	if idx == -1 {
		return models.Prompt{}, fmt.Errorf("prompt not found: %s", id)
	}
	removed := prompts[idx]
	prompts = append(prompts[:idx], prompts[idx+1:]...)
	return removed, s.ReplaceAll(prompts)
}

// ReplaceAll overwrites the prompt list. An empty list deletes the record.
func (s *PromptStore) ReplaceAll(prompts []models.Prompt) error {
	if len(prompts) == 0 {
		return s.kv.Delete(constants.KeyPrompts)
	}
	return s.kv.Save(constants.KeyPrompts, prompts)
}

// RuleStore persists recurrence rules keyed by prompt text.
type RuleStore struct {
	kv KeyValueStore
}

func NewRuleStore(kv KeyValueStore) *RuleStore {
	return &RuleStore{kv: kv}
}

// All returns the full text-to-rule mapping, never nil.
func (s *RuleStore) All() models.RuleSet {
	rules, ok := Load[models.RuleSet](s.kv, constants.KeyRules)
	if !ok || rules == nil {
		return models.RuleSet{}
	}
	return rules
}

func (s *RuleStore) Get(text string) (models.RecurrenceRule, bool) {
	rule, ok := s.All()[text]
	return rule, ok
}

// Set validates and stores the rule for text. Text is trimmed like prompt text.
func (s *RuleStore) Set(text string, rule models.RecurrenceRule) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("prompt text cannot be empty")
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	rules := s.All()
	rules[text] = rule
	return s.kv.Save(constants.KeyRules, rules)
}

// Delete removes the rule for text. Missing rules are not an error.
func (s *RuleStore) Delete(text string) error {
	rules := s.All()
	if _, ok := rules[text]; !ok {
		return nil
	}
	delete(rules, text)
	return s.ReplaceAll(rules)
}

// ReplaceAll overwrites the mapping. An empty mapping deletes the record.
func (s *RuleStore) ReplaceAll(rules models.RuleSet) error {
	if len(rules) == 0 {
		return s.kv.Delete(constants.KeyRules)
	}
	return s.kv.Save(constants.KeyRules, rules)
}

// HistoryStore persists the scheduler's history record.
type HistoryStore struct {
	kv KeyValueStore
}

func NewHistoryStore(kv KeyValueStore) *HistoryStore {
	return &HistoryStore{kv: kv}
}

// Load returns the stored history, or an empty one when missing or unreadable.
func (s *HistoryStore) Load() *models.ScheduleHistory {
	h, ok := Load[*models.ScheduleHistory](s.kv, constants.KeyHistory)
	if !ok || h == nil {
		return models.NewScheduleHistory()
	}
	h.Normalize()
	return h
}

// Save writes the history on a best-effort basis.
func (s *HistoryStore) Save(h *models.ScheduleHistory) bool {
	return Save(s.kv, constants.KeyHistory, h)
}

// ActionLog is the append-only log of prompt responses.
type ActionLog struct {
	kv  KeyValueStore
	now func() time.Time
}

func NewActionLog(kv KeyValueStore) *ActionLog {
	return &ActionLog{kv: kv, now: time.Now}
}

// Append records an event, assigning an id and timestamp when absent.
func (l *ActionLog) Append(event models.PromptActionEvent) (models.PromptActionEvent, error) {
	if err := event.Validate(); err != nil {
		return models.PromptActionEvent{}, err
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = l.now()
	}
	events := append(l.List(), event)
	if err := l.kv.Save(constants.KeyActions, events); err != nil {
		return models.PromptActionEvent{}, err
	}
	return event, nil
}

// List returns every recorded event, oldest first.
func (l *ActionLog) List() []models.PromptActionEvent {
	events, _ := Load[[]models.PromptActionEvent](l.kv, constants.KeyActions)
	return events
}

// SettingsStore persists application settings.
type SettingsStore struct {
	kv KeyValueStore
}

func NewSettingsStore(kv KeyValueStore) *SettingsStore {
	return &SettingsStore{kv: kv}
}

// Get returns stored settings, or defaults when none have been saved.
func (s *SettingsStore) Get() models.Settings {
	settings, ok := Load[models.Settings](s.kv, constants.KeySettings)
	if !ok {
		return models.DefaultSettings()
	}
	models.ApplyDefaultSettings(&settings)
	return settings
}

func (s *SettingsStore) Save(settings models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.kv.Save(constants.KeySettings, settings)
}
