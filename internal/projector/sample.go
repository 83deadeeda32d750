package projector

import (
	"context"
	"math/rand/v2"

	"github.com/iwvelando/relocation-forecast/pkg/validation"
)

// MaxSampleDraws caps a single Sample call.
const MaxSampleDraws = 100000

// SampleResult is the output of Sample.
type SampleResult struct {
	Seed       uint64     `json:"seed" yaml:"seed"`
	Draws      int        `json:"draws" yaml:"draws"`
	TopPaths   []Outcome  `json:"topPaths" yaml:"topPaths"`
	Outcomes   []Outcome  `json:"outcomes" yaml:"outcomes"`
	Statistics Statistics `json:"statistics" yaml:"statistics"`
}

// Sample draws lever combinations at random instead of enumerating the whole
// cross product. Each lever value is drawn uniformly from its sequence. The
// generator is seeded from seed alone, so identical inputs give identical
// output. Outcome.Index holds the draw number.
func Sample(ctx context.Context, req Request, draws int, seed uint64) (SampleResult, error) {
	if err := req.Validate(); err != nil {
		return SampleResult{}, err
	}
	if draws <= 0 || draws > MaxSampleDraws {
		return SampleResult{}, validation.NewValidationError("draws", "must be between 1 and %d, got %d", MaxSampleDraws, draws)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	levers := req.Levers
	outcomes := make([]Outcome, 0, draws)
	for i := 0; i < draws; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return SampleResult{}, err
			}
		}
		c := combination{
			index:            i,
			upskillBoost:     levers.UpskillBoost[rng.IntN(len(levers.UpskillBoost))],
			expenseReduction: levers.ExpenseReduction[rng.IntN(len(levers.ExpenseReduction))],
			sideIncome:       levers.SideIncome[rng.IntN(len(levers.SideIncome))],
		}
		outcomes = append(outcomes, evaluate(req, c))
	}

	return SampleResult{
		Seed:       seed,
		Draws:      draws,
		TopPaths:   Rank(outcomes, req.topN()),
		Outcomes:   outcomes,
		Statistics: computeStatistics(outcomes),
	}, nil
}
