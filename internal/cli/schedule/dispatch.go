package schedule

import (
	"errors"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/notifier"
)

var ErrNotificationsDisabled = errors.New("notifications are disabled")

// Dispatch delivers due queued notifications through sender.
func Dispatch(ctx *cli.Context, sender notifier.Sender) (notifier.DispatchResult, error) {
	_, settings, err := ctx.Location()
	if err != nil {
		return notifier.DispatchResult{}, err
	}
	if !settings.NotificationsEnabled {
		return notifier.DispatchResult{}, ErrNotificationsDisabled
	}
	if err := ctx.Queue.RegisterActionCategories([]notifier.ActionCategory{notifier.PromptActions()}); err != nil {
		return notifier.DispatchResult{}, err
	}

	result, err := ctx.Queue.DispatchDue(ctx.Clock(), graceOf(settings.DispatchGraceMin), sender)
	if err != nil {
		return result, err
	}
	if len(result.Sent)+len(result.Failed)+len(result.Dropped) > 0 {
		logger.Info("Dispatch pass", "sent", len(result.Sent), "failed", len(result.Failed), "dropped", len(result.Dropped))
	}
	return result, nil
}

type DispatchCmd struct {
	DryRun bool `help:"Print due notifications without delivering or dequeuing them."`
}

func (c *DispatchCmd) Run(ctx *cli.Context) error {
	if c.DryRun {
		return c.dryRun(ctx)
	}

	result, err := Dispatch(ctx, ctx.Sender)
	if errors.Is(err, ErrNotificationsDisabled) {
		ctx.Println("Notifications are disabled. Enable them with 'nudge settings set notifications_enabled true'.")
		return nil
	}
	if err != nil {
		return err
	}

	if len(result.Sent) == 0 && len(result.Failed) == 0 && len(result.Dropped) == 0 {
		ctx.Println("Nothing due.")
		return nil
	}
	ctx.Printf("✓ Delivered %d notifications\n", len(result.Sent))
	if len(result.Dropped) > 0 {
		ctx.Printf("  Dropped %d stale notifications\n", len(result.Dropped))
	}
	if len(result.Failed) > 0 {
		ctx.Println(cli.WarningStyle.Render("⚠️  Some notifications could not be delivered; they stay queued. Is the tray app running?"))
	}
	return nil
}

func (c *DispatchCmd) dryRun(ctx *cli.Context) error {
	_, settings, err := ctx.Location()
	if err != nil {
		return err
	}
	due, err := ctx.Queue.Due(ctx.Clock(), graceOf(settings.DispatchGraceMin))
	if err != nil {
		return err
	}
	if len(due) == 0 {
		ctx.Println("Nothing due.")
		return nil
	}

	sender := notifier.StdoutSender{W: ctx.Out}
	actions := notifier.PromptActions().Actions
	for _, n := range due {
		if err := sender.Send(n, actions); err != nil {
			return err
		}
	}
	return nil
}
