package prompts

import (
	"fmt"
	"strings"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
)

type PromptAddCmd struct {
	Text     string `arg:"" help:"Prompt text shown in the notification."`
	Category string `help:"Optional category label."`

	cli.RuleFlags `embed:""`
}

func (c *PromptAddCmd) Run(ctx *cli.Context) error {
	var rule models.RecurrenceRule
	if c.RuleFlags.IsSet() {
		var err error
		if rule, err = c.RuleFlags.Build(); err != nil {
			return err
		}
	}

	prompt, err := ctx.Prompts.Add(c.Text, c.Category, ctx.Now())
	if err != nil {
		return fmt.Errorf("failed to add prompt: %w", err)
	}
	if c.RuleFlags.IsSet() {
		if err := ctx.Rules.Set(prompt.Text, rule); err != nil {
			return fmt.Errorf("prompt added but rule not saved: %w", err)
		}
	}

	ctx.Printf("✓ Added prompt %s: %s\n", shortID(prompt.ID), prompt.Text)
	if c.RuleFlags.IsSet() {
		ctx.Printf("  Rule: %s\n", cli.FormatRule(rule))
	}
	return nil
}

type PromptListCmd struct {
	Category string `help:"Only list prompts in this category."`
}

func (c *PromptListCmd) Run(ctx *cli.Context) error {
	prompts := ctx.Prompts.All()
	rules := ctx.Rules.All()

	var rows [][]string
	for _, p := range prompts {
		if c.Category != "" && !strings.EqualFold(p.Category, c.Category) {
			continue
		}
		rule := "always"
		if r, ok := rules[p.Text]; ok {
			rule = cli.FormatRule(r)
		}
		rows = append(rows, []string{shortID(p.ID), p.Text, p.Category, rule})
	}

	if len(rows) == 0 {
		ctx.Println("No prompts found. Use 'nudge prompt add' to create one.")
		return nil
	}
	ctx.Println(cli.Table([]string{"ID", "TEXT", "CATEGORY", "RULE"}, rows))
	return nil
}

type PromptDeleteCmd struct {
	ID string `arg:"" help:"Prompt id or unique id prefix."`
}

func (c *PromptDeleteCmd) Run(ctx *cli.Context) error {
	removed, err := ctx.Prompts.Delete(c.ID)
	if err != nil {
		return err
	}

	// Rules are keyed by text; keep the rule while another prompt still uses it.
	shared := false
	for _, p := range ctx.Prompts.All() {
		if p.Text == removed.Text {
			shared = true
			break
		}
	}
	if !shared {
		if err := ctx.Rules.Delete(removed.Text); err != nil {
			return fmt.Errorf("prompt deleted but rule not removed: %w", err)
		}
	}

	ctx.Printf("✓ Deleted prompt %s: %s\n", shortID(removed.ID), removed.Text)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
