package schedule

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/scheduler"
)

type RespondCmd struct {
	ID     string `arg:"" help:"Notification id, as shown by 'nudge plan'."`
	Action string `arg:"" help:"done or skip."`
}

func (c *RespondCmd) Run(ctx *cli.Context) error {
	action, err := models.ParsePromptAction(c.Action)
	if err != nil {
		return err
	}
	loc, _, err := ctx.Location()
	if err != nil {
		return err
	}
	_, _, promptID, err := scheduler.ParseNotificationID(c.ID, loc)
	if err != nil {
		return err
	}

	event, err := ctx.Actions.Append(models.PromptActionEvent{
		PromptID:   promptID,
		PromptText: promptText(ctx, c.ID, promptID),
		Action:     action,
		OccurredAt: ctx.Clock(),
	})
	if err != nil {
		return fmt.Errorf("failed to record response: %w", err)
	}

	// Responding before delivery withdraws the notification.
	if err := ctx.Queue.CancelPending([]string{c.ID}); err != nil {
		logger.Warn("Failed to withdraw answered notification", "id", c.ID, "error", err)
	}

	ctx.Printf("✓ Recorded %s for %q\n", event.Action, event.PromptText)
	return nil
}

// promptText resolves the text from the prompt list, falling back to the queued entry.
func promptText(ctx *cli.Context, notificationID, promptID string) string {
	for _, p := range ctx.Prompts.All() {
		if p.ID == promptID {
			return p.Text
		}
	}
	pending, err := ctx.Queue.Pending()
	if err != nil {
		return ""
	}
	for _, n := range pending {
		if n.ID == notificationID {
			return n.UserInfo[constants.UserInfoPromptText]
		}
	}
	return ""
}
