package scheduler

import (
	"math/rand/v2"
	"time"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

// Eligible returns the prompts in pool whose rule is active at the given instant,
// preserving order. Prompts without a rule are always eligible.
func Eligible(pool []models.Prompt, rules models.RuleSet, at time.Time, loc *time.Location) []models.Prompt {
	var out []models.Prompt
	for _, p := range pool {
		rule, ok := rules[p.Text]
		if !ok || utils.IsActive(rule, at, loc) {
			out = append(out, p)
		}
	}
	return out
}

// PickOne chooses the prompt for a slot. When lastText is set, the first eligible prompt
// with different text wins; otherwise the choice is a uniform draw from r.
func PickOne(eligible []models.Prompt, lastText *string, r *rand.Rand) (models.Prompt, bool) {
	if len(eligible) == 0 {
		return models.Prompt{}, false
	}
	if lastText != nil {
		for _, p := range eligible {
			if p.Text != *lastText {
				return p, true
			}
		}
	}
	return eligible[r.IntN(len(eligible))], true
}
