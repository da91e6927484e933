package cleanup

import (
	"time"

	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

// PromptRepository is the prompt list the pruner edits.
type PromptRepository interface {
	All() []models.Prompt
	ReplaceAll(prompts []models.Prompt) error
}

// RuleRepository is the rule mapping the pruner edits.
type RuleRepository interface {
	All() models.RuleSet
	ReplaceAll(rules models.RuleSet) error
}

// Result lists what a prune removed.
type Result struct {
	Prompts []models.Prompt
	Rules   []string
}

// PruneExpired removes one-off prompts whose day has fully passed, along with their rules.
func PruneExpired(prompts PromptRepository, rules RuleRepository, now time.Time, loc *time.Location) (Result, error) {
	var result Result

	ruleSet := rules.All()
	expired := make(map[string]bool)
	for text, rule := range ruleSet {
		if utils.ShouldAutoDelete(rule, now, loc) {
			expired[text] = true
		}
	}
	if len(expired) == 0 {
		return result, nil
	}

	all := prompts.All()
	kept := make([]models.Prompt, 0, len(all))
	for _, p := range all {
		if expired[p.Text] {
			result.Prompts = append(result.Prompts, p)
			continue
		}
		kept = append(kept, p)
	}
	if len(result.Prompts) > 0 {
		if err := prompts.ReplaceAll(kept); err != nil {
			return Result{}, err
		}
	}

	for text := range expired {
		delete(ruleSet, text)
		result.Rules = append(result.Rules, text)
	}
	if err := rules.ReplaceAll(ruleSet); err != nil {
		return result, err
	}

	logger.Info("Pruned expired one-off prompts", "prompts", len(result.Prompts), "rules", len(result.Rules))
	return result, nil
}
