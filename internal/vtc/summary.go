package vtc

import (
	"fmt"

	"github.com/iwvelando/relocation-forecast/pkg/format"
	"github.com/iwvelando/relocation-forecast/pkg/mathutil"
)

// CategoryTotals breaks down spend for one category by decision.
type CategoryTotals struct {
	ApprovedTotal float64 `json:"approvedTotal" yaml:"approvedTotal"`
	DeclinedTotal float64 `json:"declinedTotal" yaml:"declinedTotal"`
	FlaggedTotal  float64 `json:"flaggedTotal" yaml:"flaggedTotal"`
	GrandTotal    float64 `json:"grandTotal" yaml:"grandTotal"`
}

// Summary aggregates a list of classification results.
type Summary struct {
	TotalTransactions int                         `json:"totalTransactions" yaml:"totalTransactions"`
	ApprovedCount     int                         `json:"approvedCount" yaml:"approvedCount"`
	DeclinedCount     int                         `json:"declinedCount" yaml:"declinedCount"`
	FlaggedCount      int                         `json:"flaggedCount" yaml:"flaggedCount"`
	TotalApproved     float64                     `json:"totalApproved" yaml:"totalApproved"`
	TotalDeclined     float64                     `json:"totalDeclined" yaml:"totalDeclined"`
	TotalFlagged      float64                     `json:"totalFlagged" yaml:"totalFlagged"`
	ApprovalRate      float64                     `json:"approvalRate" yaml:"approvalRate"`
	PotentialSavings  float64                     `json:"potentialSavings" yaml:"potentialSavings"`
	CategoryBreakdown map[Category]CategoryTotals `json:"categoryBreakdown" yaml:"categoryBreakdown"`
}

// Summarize aggregates results. An empty list yields a zeroed summary with an
// approval rate of 0.
func Summarize(results []Result) Summary {
	summary := Summary{
		TotalTransactions: len(results),
		CategoryBreakdown: make(map[Category]CategoryTotals),
	}

	for _, r := range results {
		totals := summary.CategoryBreakdown[r.Category]
		totals.GrandTotal += r.Amount

		switch r.Status {
		case StatusApproved:
			summary.ApprovedCount++
			summary.TotalApproved += r.Amount
			totals.ApprovedTotal += r.Amount
		case StatusDeclined:
			summary.DeclinedCount++
			summary.TotalDeclined += r.Amount
			totals.DeclinedTotal += r.Amount
		case StatusFlagged:
			summary.FlaggedCount++
			summary.TotalFlagged += r.Amount
			totals.FlaggedTotal += r.Amount
		}
		summary.PotentialSavings += r.SavingsImpact
		summary.CategoryBreakdown[r.Category] = totals
	}

	summary.ApprovalRate = mathutil.Ratio(float64(summary.ApprovedCount), float64(summary.TotalTransactions))
	return summary
}

// Recommendations turns a classification run into short, actionable advice.
// Amounts are shown with the symbol for currency. There is always at least
// one entry.
func Recommendations(results []Result, profile Profile, currency string) []string {
	symbol := format.Symbol(currency)
	var recommendations []string

	var declinedTotal float64
	internationalDeclines := 0
	largeDecline := false
	for _, r := range results {
		if r.Status != StatusDeclined {
			continue
		}
		declinedTotal += r.Amount
		if r.Amount > 500 {
			largeDecline = true
		}
		if r.Location == LocationInternational {
			internationalDeclines++
		}
	}

	if largeDecline {
		recommendations = append(recommendations, fmt.Sprintf(
			"Consider splitting large purchases (over %s%.0f) into smaller transactions", symbol, profile.MaxSingleTransaction))
	}
	if internationalDeclines > 2 {
		recommendations = append(recommendations,
			"Set up travel notifications with your bank before moving abroad to increase international limits")
	}
	if declinedTotal > 1000 {
		recommendations = append(recommendations, fmt.Sprintf(
			"VTC saved you %s%.0f from potential overspending, use this for visa fund proof", symbol, mathutil.Round(declinedTotal)))
	}

	switch profile.Name {
	case ProfileConservative:
		recommendations = append(recommendations,
			"Your conservative VTC profile is ideal for the first 3 months abroad, consider upgrading later")
	case ProfileFlexible:
		recommendations = append(recommendations,
			"Flexible VTC profile detected, ensure you have emergency savings before high spending")
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations,
			"Your spending pattern is well-optimized for your VTC profile, keep it up!")
	}
	return recommendations
}
