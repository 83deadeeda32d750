package output

import (
	"io"
	"sort"

	"github.com/iwvelando/relocation-forecast/internal/catalog"
	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/report"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
	"github.com/iwvelando/relocation-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer wraps a message.Printer and remembers the first write error.
type printer struct {
	p   *message.Printer
	w   io.Writer
	err error
}

func newPrinter(w io.Writer) *printer {
	return &printer{p: message.NewPrinter(language.English), w: w}
}

func (pr *printer) printf(format string, args ...interface{}) {
	if pr.err != nil {
		return
	}
	_, pr.err = pr.p.Fprintf(pr.w, format, args...)
}

// PrettyClassification outputs a human-readable classification table.
func PrettyClassification(w io.Writer, c Classification) error {
	pr := newPrinter(w)
	pr.printf("--- Transaction controls: %s profile ---\n", c.Profile.Name)
	pr.printf("#  | Status   | Amount      | Running     | Category      | Location      | Description | Reason\n")
	pr.printf("__ | ________ | ___________ | ___________ | _____________ | _____________ | ___________ | ______\n")
	for i, r := range c.Results {
		pr.printf("%-2d | %-8s | €%10.2f | €%10.2f | %-13s | %-13s | %s | %s\n",
			i+1, r.Status, r.Amount, r.RunningDailyTotal, r.Category, r.Location, r.Description, r.Reason)
	}

	s := c.Summary
	pr.printf("\nApproved: %d (€%.2f)  Declined: %d (€%.2f)  Flagged: %d (€%.2f)\n",
		s.ApprovedCount, s.TotalApproved, s.DeclinedCount, s.TotalDeclined, s.FlaggedCount, s.TotalFlagged)
	pr.printf("Approval rate: %s  Potential savings: €%.2f\n", format.Percent(s.ApprovalRate), s.PotentialSavings)

	if len(s.CategoryBreakdown) > 0 {
		pr.printf("\nCategory      | Approved    | Declined    | Flagged     | Total\n")
		for _, category := range sortedCategories(s.CategoryBreakdown) {
			t := s.CategoryBreakdown[category]
			pr.printf("%-13s | €%10.2f | €%10.2f | €%10.2f | €%10.2f\n",
				category, t.ApprovedTotal, t.DeclinedTotal, t.FlaggedTotal, t.GrandTotal)
		}
	}

	if len(c.Recommendations) > 0 {
		pr.printf("\nRecommendations:\n")
		for _, rec := range c.Recommendations {
			pr.printf("  - %s\n", rec)
		}
	}
	return pr.err
}

func sortedCategories(breakdown map[vtc.Category]vtc.CategoryTotals) []vtc.Category {
	categories := make([]vtc.Category, 0, len(breakdown))
	for c := range breakdown {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

func prettyOutcomes(pr *printer, title string, outcomes []projector.Outcome) {
	pr.printf("--- %s ---\n", title)
	pr.printf("Rank | Path                    | Approval | Stability | Monthly     | Total        | Visa fund | Levers\n")
	pr.printf("____ | _______________________ | ________ | _________ | ___________ | ____________ | _________ | ______\n")
	for i, o := range outcomes {
		met := "no"
		if o.VisaFundMet {
			met = "yes"
		}
		pr.printf("%-4d | %-23s | %8s | %9.1f | %11.2f | %12.2f | %-9s | %s\n",
			i+1, o.PathName, format.Percent(o.ApprovalProbability), o.StabilityScore,
			o.MonthlySavings, o.TotalSavings, met, o.PathDescription)
	}
}

func prettyStatistics(pr *printer, s projector.Statistics) {
	pr.printf("\nScenarios: %d  Visa fund success rate: %s\n", s.TotalScenarios, format.Percent(s.VisaFundSuccessRate))
	pr.printf("Salary:   min %.2f  avg %.2f  max %.2f\n", s.Salary.Min, s.Salary.Avg, s.Salary.Max)
	pr.printf("Savings:  min %.2f  avg %.2f  max %.2f\n", s.Savings.Min, s.Savings.Avg, s.Savings.Max)
	pr.printf("Approval: min %s  avg %s  max %s\n",
		format.Percent(s.ApprovalProbability.Min), format.Percent(s.ApprovalProbability.Avg), format.Percent(s.ApprovalProbability.Max))
}

// PrettyProjection outputs the ranked paths and statistics of a projection.
func PrettyProjection(w io.Writer, r projector.Result) error {
	pr := newPrinter(w)
	prettyOutcomes(pr, "Top relocation paths", r.TopPaths)
	prettyStatistics(pr, r.Statistics)
	pr.printf("\n%s\n", r.Comparison)
	return pr.err
}

// PrettySample outputs a sampled projection.
func PrettySample(w io.Writer, r projector.SampleResult) error {
	pr := newPrinter(w)
	prettyOutcomes(pr, "Top sampled paths", r.TopPaths)
	pr.printf("\nSeed: %d  Draws: %d\n", r.Seed, r.Draws)
	prettyStatistics(pr, r.Statistics)
	return pr.err
}

// PrettyReport outputs a full relocation report.
func PrettyReport(w io.Writer, r report.Report) error {
	pr := newPrinter(w)
	symbol := format.Symbol(r.Currency)
	pr.printf("=== Relocation report: %s, %s ===\n", r.City, r.Country)
	pr.printf("Monthly expenses: %s%.2f (rent %.2f, groceries %.2f, utilities %.2f, transport %.2f, internet %.2f, dining %.2f, misc %.2f)\n",
		symbol, r.Expenses.Total, r.Expenses.Rent, r.Expenses.Groceries, r.Expenses.Utilities,
		r.Expenses.Transport, r.Expenses.Internet, r.Expenses.DiningOut, r.Expenses.Misc)
	pr.printf("Salary: %s%.2f  Visa fund proof: %s%.2f\n", symbol, r.Salary, symbol, r.RequiredFund)
	pr.printf("Visa routes: %v (processing ~%d weeks)\n\n", r.Visa.VisaTypes, r.Visa.ProcessingTimeWeeks)
	if pr.err != nil {
		return pr.err
	}

	if err := PrettyClassification(w, Classification{
		Profile:         r.Profile,
		Results:         r.Classification,
		Summary:         r.Summary,
		Recommendations: r.Recommendations,
	}); err != nil {
		return err
	}
	pr.printf("\n")
	prettyOutcomes(pr, "Top relocation paths", r.Projection.TopPaths)
	prettyStatistics(pr, r.Projection.Statistics)
	pr.printf("\n%s\n\n%s\n", r.Projection.Comparison, r.GuardianMessage)
	return pr.err
}

// PrettyProfiles lists rule profiles.
func PrettyProfiles(w io.Writer, profiles []vtc.Profile) error {
	pr := newPrinter(w)
	pr.printf("Profile      | Daily      | Single     | Intl       | ATM        | ATM on | Block high risk | Description\n")
	pr.printf("____________ | __________ | __________ | __________ | __________ | ______ | _______________ | ___________\n")
	for _, p := range profiles {
		pr.printf("%-12s | %10.2f | %10.2f | %10.2f | %10.2f | %-6t | %-15t | %s\n",
			p.Name, p.DailyLimit, p.MaxSingleTransaction, p.MaxInternationalTransaction,
			p.MaxATMWithdrawal, p.AllowATM, p.BlockHighRiskMerchants, p.Description)
	}
	return pr.err
}

// PrettyCountries lists a country cost comparison, cheapest first.
func PrettyCountries(w io.Writer, rows []catalog.CountryCost) error {
	pr := newPrinter(w)
	pr.printf("Country        | City          | Local cost       | Cost (EUR)  | PPP  | Avg tech salary\n")
	pr.printf("______________ | _____________ | ________________ | ___________ | ____ | _______________\n")
	for _, r := range rows {
		pr.printf("%-14s | %-13s | %s %12.2f | €%10.2f | %.2f | %s %.2f\n",
			r.Country, r.City, r.Currency, r.MonthlyCostLocal, r.MonthlyCostEUR, r.PPPIndex, r.Currency, r.AvgTechSalary)
	}
	return pr.err
}
