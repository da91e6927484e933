package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/nudge/internal/cli"
)

type RuleSetCmd struct {
	Text string `arg:"" help:"Prompt text the rule applies to."`

	cli.RuleFlags `embed:""`
}

func (c *RuleSetCmd) Run(ctx *cli.Context) error {
	c.Text = strings.TrimSpace(c.Text)
	if !c.RuleFlags.IsSet() {
		return fmt.Errorf("no rule flags given; use 'nudge rule clear' to remove a rule")
	}
	rule, err := c.RuleFlags.Build()
	if err != nil {
		return err
	}

	found := false
	for _, p := range ctx.Prompts.All() {
		if p.Text == c.Text {
			found = true
			break
		}
	}
	if !found {
		ctx.Println(cli.WarningStyle.Render("⚠️  No prompt has this text yet; the rule applies once one is added."))
	}

	if err := ctx.Rules.Set(c.Text, rule); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	ctx.Printf("✓ Rule for %q: %s\n", c.Text, cli.FormatRule(rule))
	return nil
}

type RuleShowCmd struct {
	Text string `arg:"" optional:"" help:"Prompt text; omit to list every rule."`
	JSON bool   `help:"Print the stored JSON."`
}

func (c *RuleShowCmd) Run(ctx *cli.Context) error {
	c.Text = strings.TrimSpace(c.Text)
	rules := ctx.Rules.All()

	if c.Text != "" {
		rule, ok := rules[c.Text]
		if !ok {
			return fmt.Errorf("no rule for %q", c.Text)
		}
		if c.JSON {
			data, err := json.MarshalIndent(rule, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal rule: %w", err)
			}
			ctx.Println(string(data))
			return nil
		}
		ctx.Printf("%s: %s\n", c.Text, cli.FormatRule(rule))
		return nil
	}

	if c.JSON {
		data, err := json.MarshalIndent(rules, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal rules: %w", err)
		}
		ctx.Println(string(data))
		return nil
	}

	if len(rules) == 0 {
		ctx.Println("No rules set. Prompts without a rule are always eligible.")
		return nil
	}
	texts := make([]string, 0, len(rules))
	for text := range rules {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	rows := make([][]string, 0, len(texts))
	for _, text := range texts {
		rows = append(rows, []string{text, cli.FormatRule(rules[text])})
	}
	ctx.Println(cli.Table([]string{"PROMPT", "RULE"}, rows))
	return nil
}

type RuleClearCmd struct {
	Text string `arg:"" help:"Prompt text whose rule is removed."`
}

func (c *RuleClearCmd) Run(ctx *cli.Context) error {
	c.Text = strings.TrimSpace(c.Text)
	if _, ok := ctx.Rules.Get(c.Text); !ok {
		ctx.Printf("No rule for %q\n", c.Text)
		return nil
	}
	if err := ctx.Rules.Delete(c.Text); err != nil {
		return fmt.Errorf("failed to clear rule: %w", err)
	}
	ctx.Printf("✓ Cleared rule for %q\n", c.Text)
	return nil
}
