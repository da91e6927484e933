package schedule

import (
	"fmt"
	"time"

	"github.com/julianstephens/nudge/internal/cleanup"
	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/scheduler"
)

// Refresh plans today through the persisted queue. With prune, expired one-off prompts are
// removed first so they never reach the candidate pool.
func Refresh(ctx *cli.Context, force, prune bool) (scheduler.Result, error) {
	sched, settings, err := ctx.Scheduler()
	if err != nil {
		return scheduler.Result{}, err
	}

	if prune {
		loc, _, err := ctx.Location()
		if err != nil {
			return scheduler.Result{}, err
		}
		if _, err := cleanup.PruneExpired(ctx.Prompts, ctx.Rules, ctx.Clock(), loc); err != nil {
			logger.Warn("Failed to prune expired prompts", "error", err)
		}
	}

	return sched.RefreshToday(ctx.Prompts.All(), scheduler.OptionsFromSettings(settings), force), nil
}

type RefreshCmd struct {
	Force   bool `help:"Cancel today's pending notifications and plan again."`
	NoPrune bool `help:"Keep one-off prompts whose day has passed."`
}

func (c *RefreshCmd) Run(ctx *cli.Context) error {
	result, err := Refresh(ctx, c.Force, !c.NoPrune)
	if err != nil {
		return err
	}
	printResult(ctx, result)
	return nil
}

func printResult(ctx *cli.Context, result scheduler.Result) {
	if result.Cancelled > 0 {
		ctx.Printf("Cancelled %d pending notifications\n", result.Cancelled)
	}

	switch result.State {
	case scheduler.StateAlreadyPlanned:
		ctx.Printf("%s is already planned. Use --force to plan again.\n", result.DayKey)
	case scheduler.StateNoCandidates:
		ctx.Printf("No prompts to schedule for %s. Use 'nudge prompt add' to create one.\n", result.DayKey)
	case scheduler.StateNoSlots:
		ctx.Printf("No notification slots left today (%s).\n", result.DayKey)
	case scheduler.StatePlanned:
		ctx.Printf("✓ Planned %s: %d of %d slots scheduled\n", result.DayKey, len(result.Scheduled), len(result.Slots))
		if len(result.Slots) > 0 {
			first := result.Slots[0].Format(constants.TimeFormat)
			last := result.Slots[len(result.Slots)-1].Format(constants.TimeFormat)
			ctx.Printf("  Slots: %s to %s\n", first, last)
		}
		if result.Skipped > 0 {
			ctx.Printf("  %d slots had no eligible prompt\n", result.Skipped)
		}
		if result.Failed > 0 {
			ctx.Println(cli.WarningStyle.Render(fmt.Sprintf("⚠️  %d notifications could not be queued", result.Failed)))
		}
	}

	if !result.Persisted && result.State != scheduler.StateAlreadyPlanned {
		ctx.Println(cli.WarningStyle.Render("⚠️  Plan was not saved; the next refresh will plan again."))
	}
}

type PruneCmd struct{}

func (c *PruneCmd) Run(ctx *cli.Context) error {
	loc, _, err := ctx.Location()
	if err != nil {
		return err
	}
	result, err := cleanup.PruneExpired(ctx.Prompts, ctx.Rules, ctx.Clock(), loc)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	if len(result.Rules) == 0 {
		ctx.Println("No expired one-off prompts.")
		return nil
	}
	for _, p := range result.Prompts {
		ctx.Printf("  removed %s\n", p.Text)
	}
	ctx.Printf("✓ Pruned %d prompts and %d rules\n", len(result.Prompts), len(result.Rules))
	return nil
}

func graceOf(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
