package prompts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

// ImportFile is the document accepted by "prompt import". JSON files parse as YAML.
type ImportFile struct {
	Prompts []ImportEntry `yaml:"prompts"`
}

type ImportEntry struct {
	Text     string                 `yaml:"text"`
	Category string                 `yaml:"category,omitempty"`
	Rule     *models.RecurrenceRule `yaml:"rule,omitempty"`
}

// ParseImport decodes and validates an import document. Entry text is trimmed the way
// stored prompts are, so rules stay keyed by the text that is saved.
func ParseImport(data []byte) ([]ImportEntry, error) {
	var doc ImportFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	for i := range doc.Prompts {
		entry := &doc.Prompts[i]
		entry.Text = strings.TrimSpace(entry.Text)
		if entry.Text == "" {
			return nil, fmt.Errorf("prompt %d: text cannot be empty", i+1)
		}
		if entry.Rule == nil {
			continue
		}
		if entry.Rule.WindowMinutes == 0 {
			entry.Rule.WindowMinutes = constants.DefaultWindowMinutes
		}
		if err := entry.Rule.Validate(); err != nil {
			return nil, fmt.Errorf("prompt %d (%q): %w", i+1, entry.Text, err)
		}
	}
	return doc.Prompts, nil
}

type PromptImportCmd struct {
	File    string `arg:"" type:"existingfile" help:"YAML or JSON file with a top-level 'prompts' list."`
	Replace bool   `help:"Replace all existing prompts and rules instead of merging."`
}

func (c *PromptImportCmd) Run(ctx *cli.Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	entries, err := ParseImport(data)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	prompts := ctx.Prompts.All()
	rules := ctx.Rules.All()
	if c.Replace {
		prompts = nil
		rules = models.RuleSet{}
	}

	known := make(map[string]bool, len(prompts))
	for _, p := range prompts {
		known[p.Text] = true
	}

	// Build the full result first so a bad entry leaves the store untouched.
	added, skipped := 0, 0
	now := ctx.Now()
	for _, entry := range entries {
		if entry.Rule != nil {
			rules[entry.Text] = *entry.Rule
		}
		if known[entry.Text] {
			skipped++
			continue
		}
		p, err := storage.NewPrompt(entry.Text, entry.Category, now)
		if err != nil {
			return fmt.Errorf("failed to import %q: %w", entry.Text, err)
		}
		prompts = append(prompts, p)
		known[entry.Text] = true
		added++
	}

	// Rules are written before prompts so no prompt is ever stored without its rule.
	if err := ctx.Rules.ReplaceAll(rules); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}
	if err := ctx.Prompts.ReplaceAll(prompts); err != nil {
		return fmt.Errorf("failed to save prompts: %w", err)
	}

	ctx.Printf("✓ Imported %d prompts (%d already present)\n", added, skipped)
	return nil
}
