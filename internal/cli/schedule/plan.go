package schedule

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/notifier"
)

type planView struct {
	History *models.ScheduleHistory `json:"history"`
	Pending []notifier.Notification `json:"pending"`
}

type PlanCmd struct {
	JSON bool `help:"Print the history record and queue as JSON."`
}

func (c *PlanCmd) Run(ctx *cli.Context) error {
	loc, _, err := ctx.Location()
	if err != nil {
		return err
	}
	history := ctx.History.Load()
	pending, err := ctx.Queue.Pending()
	if err != nil {
		return fmt.Errorf("failed to read pending notifications: %w", err)
	}

	if c.JSON {
		data, err := json.MarshalIndent(planView{History: history, Pending: pending}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan: %w", err)
		}
		ctx.Println(string(data))
		return nil
	}

	if history.LastPlanDate == nil {
		ctx.Println("No plan yet. Run 'nudge refresh' to plan today.")
		return nil
	}

	ctx.Println(cli.HeaderStyle.Render("Plan for " + *history.LastPlanDate))
	ctx.Printf("Scheduled: %d   Still queued: %d\n", len(history.PendingIDs), len(pending))
	if history.LastText != nil {
		ctx.Println(cli.MutedStyle.Render("Last prompt: " + *history.LastText))
	}
	if len(pending) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(pending))
	for _, n := range pending {
		rows = append(rows, []string{n.At.In(loc).Format(constants.TimeFormat), n.Title, n.ID})
	}
	ctx.Println()
	ctx.Println(cli.Table([]string{"TIME", "PROMPT", "ID"}, rows))
	return nil
}

type ActionsCmd struct {
	Limit int `default:"20" help:"Show at most this many recent responses."`
}

func (c *ActionsCmd) Run(ctx *cli.Context) error {
	loc, _, err := ctx.Location()
	if err != nil {
		return err
	}
	events := ctx.Actions.List()
	if len(events) == 0 {
		ctx.Println("No responses recorded.")
		return nil
	}
	if c.Limit > 0 && len(events) > c.Limit {
		events = events[len(events)-c.Limit:]
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{e.OccurredAt.In(loc).Format("2006-01-02 15:04"), string(e.Action), e.PromptText})
	}
	ctx.Println(cli.Table([]string{"WHEN", "ACTION", "PROMPT"}, rows))
	return nil
}
