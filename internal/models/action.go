package models

import (
	"fmt"
	"time"
)

type PromptAction string

const (
	ActionDone    PromptAction = "done"
	ActionSkipped PromptAction = "skipped"
)

// PromptActionEvent is an append-only record of a response to a delivered prompt.
type PromptActionEvent struct {
	ID         string       `json:"id"`
	PromptID   string       `json:"prompt_id"`
	PromptText string       `json:"prompt_text"`
	Action     PromptAction `json:"action"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ParsePromptAction accepts the action names used by notification buttons and the CLI.
func ParsePromptAction(s string) (PromptAction, error) {
	switch s {
	case "done", "DONE":
		return ActionDone, nil
	case "skip", "skipped", "SKIP":
		return ActionSkipped, nil
	default:
		return "", fmt.Errorf("invalid action %q (must be done or skip)", s)
	}
}

func (e PromptActionEvent) Validate() error {
	if e.PromptID == "" {
		return fmt.Errorf("prompt id cannot be empty")
	}
	if e.Action != ActionDone && e.Action != ActionSkipped {
		return fmt.Errorf("invalid action %q", e.Action)
	}
	return nil
}
