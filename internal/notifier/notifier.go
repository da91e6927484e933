package notifier

import (
	"time"

	"github.com/julianstephens/nudge/internal/constants"
)

// Notifier schedules one-off local notifications and cancels them by id.
type Notifier interface {
	ScheduleOneOff(id, title string, at time.Time, userInfo map[string]string, category string) error
	CancelPending(ids []string) error
	RegisterActionCategories(categories []ActionCategory) error
}

// Action is a button offered on a delivered notification.
type Action struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
}

// ActionCategory groups the actions shown for notifications of one category.
type ActionCategory struct {
	Identifier string   `json:"identifier"`
	Actions    []Action `json:"actions"`
}

// PromptActions is the category attached to every prompt notification.
func PromptActions() ActionCategory {
	return ActionCategory{
		Identifier: constants.PromptActionsCategory,
		Actions: []Action{
			{Identifier: constants.ActionDoneIdentifier, Title: "Done"},
			{Identifier: constants.ActionSkipIdentifier, Title: "Skip"},
		},
	}
}

// Notification is a scheduled entry awaiting delivery.
type Notification struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	At       time.Time         `json:"at"`
	UserInfo map[string]string `json:"user_info,omitempty"`
	Category string            `json:"category,omitempty"`
}

// Sender delivers a notification immediately.
type Sender interface {
	Send(n Notification, actions []Action) error
}
