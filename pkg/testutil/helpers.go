// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
)

// FindResult finds a classification result by transaction description.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []vtc.Result, description string) *vtc.Result {
	for i := range results {
		if results[i].Description == description {
			return &results[i]
		}
	}
	return nil
}

// FindOutcome finds the outcome for an exact lever combination.
// Returns a pointer to the outcome if found, nil otherwise.
func FindOutcome(outcomes []projector.Outcome, upskillBoost, expenseReduction, sideIncome float64) *projector.Outcome {
	for i := range outcomes {
		o := &outcomes[i]
		if o.UpskillBoost == upskillBoost && o.ExpenseReduction == expenseReduction && o.SideIncome == sideIncome {
			return o
		}
	}
	return nil
}

// CountStatus returns how many results carry the given status.
func CountStatus(results []vtc.Result, status vtc.Status) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}
