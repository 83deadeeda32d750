package projector

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/iwvelando/relocation-forecast/pkg/format"
)

// PathName labels an outcome by the lever that dominates its improvement.
type PathName string

// Path names, in naming priority order.
const (
	PathCareerAccelerator PathName = "Career Accelerator Path"
	PathFrugalPioneer     PathName = "Frugal Pioneer Path"
	PathHustleBuilder     PathName = "Hustle Builder Path"
	PathBalancedGrowth    PathName = "Balanced Growth Path"
	PathSteadyProgress    PathName = "Steady Progress Path"
)

// Naming thresholds.
const (
	careerUpskillThreshold   = 0.2
	frugalExpenseThreshold   = 0.15
	hustleSideIncomeMinimum  = 400
	describeUpskillThreshold = 0.15
	describeExpenseThreshold = 0.1
)

// NamePath assigns the path name for a lever combination; the first matching
// rule wins.
func NamePath(upskillBoost, expenseReduction, sideIncome float64) PathName {
	switch {
	case upskillBoost >= careerUpskillThreshold:
		return PathCareerAccelerator
	case expenseReduction >= frugalExpenseThreshold:
		return PathFrugalPioneer
	case sideIncome >= hustleSideIncomeMinimum:
		return PathHustleBuilder
	case upskillBoost+expenseReduction > 0:
		return PathBalancedGrowth
	default:
		return PathSteadyProgress
	}
}

// DescribePath summarises the levers that shape a path, e.g.
// "+25% salary through upskilling + €200 side income".
func DescribePath(upskillBoost, expenseReduction, sideIncome float64, currency string) string {
	var parts []string
	if upskillBoost >= describeUpskillThreshold {
		parts = append(parts, fmt.Sprintf("+%.0f%% salary through upskilling", upskillBoost*constants.PercentageMultiplier))
	}
	if expenseReduction >= describeExpenseThreshold {
		parts = append(parts, fmt.Sprintf("%.0f%% expense reduction", expenseReduction*constants.PercentageMultiplier))
	}
	if sideIncome > 0 {
		parts = append(parts, fmt.Sprintf("%s%.0f side income", format.Symbol(currency), sideIncome))
	}
	if len(parts) == 0 {
		return "Current trajectory maintained"
	}
	return strings.Join(parts, " + ")
}

// ComparePaths explains how the best-ranked path differs from the runner-up.
func ComparePaths(paths []Outcome, currency string) string {
	if len(paths) < 2 {
		return "Single path analyzed."
	}

	best, second := paths[0], paths[1]
	diff := (best.ApprovalProbability - second.ApprovalProbability) * constants.PercentageMultiplier
	savingsDiff := best.TotalSavings - second.TotalSavings
	direction := "more"
	if savingsDiff < 0 {
		direction = "less"
	}

	return fmt.Sprintf(
		"The %s offers the highest success probability at %s. Compared to %s, it provides %.0f%% better approval odds and %s %s in projected savings.",
		best.PathName,
		format.Percent(best.ApprovalProbability),
		second.PathName,
		diff,
		format.Money(math.Abs(savingsDiff), currency),
		direction,
	)
}
