package scheduler

import (
	"hash/fnv"
	"math/rand/v2"
	"slices"

	"github.com/julianstephens/nudge/internal/models"
)

// Seed derives the planning seed for a day. Equal day keys and candidate counts give
// equal seeds, so a replan of an unchanged day reproduces the same assignment.
func Seed(dayKey string, candidateCount int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(dayKey))
	return h.Sum64() ^ uint64(candidateCount)
}

// NewRand returns the generator used for one planning run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Shuffle returns a shuffled copy of pool.
func Shuffle(pool []models.Prompt, r *rand.Rand) []models.Prompt {
	out := slices.Clone(pool)
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// JitterSource draws the random slot offsets. *rand.Rand satisfies it.
type JitterSource interface {
	IntN(n int) int
}

type globalJitter struct{}

func (globalJitter) IntN(n int) int { return rand.IntN(n) }

// DefaultJitter draws from the process-wide non-seeded source.
var DefaultJitter JitterSource = globalJitter{}
