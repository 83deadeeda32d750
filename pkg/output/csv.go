package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iwvelando/relocation-forecast/internal/catalog"
	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
)

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// CsvClassification outputs classification results in comma-separated value format.
func CsvClassification(w io.Writer, results []vtc.Result) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Description,
			amount(r.Amount),
			string(r.Category),
			string(r.Location),
			string(r.RiskLevel),
			string(r.Status),
			r.Reason,
			amount(r.RunningDailyTotal),
			amount(r.SavingsImpact),
		})
	}
	return writeAll(w, []string{
		"description", "amount", "category", "location", "risk_level",
		"status", "reason", "running_daily_total", "savings_impact",
	}, rows)
}

// CsvOutcomes outputs projection outcomes in comma-separated value format.
func CsvOutcomes(w io.Writer, outcomes []projector.Outcome) error {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []string{
			strconv.Itoa(o.Index),
			strconv.FormatFloat(o.UpskillBoost, 'f', -1, 64),
			strconv.FormatFloat(o.ExpenseReduction, 'f', -1, 64),
			amount(o.SideIncome),
			amount(o.Salary),
			amount(o.Expenses),
			amount(o.MonthlySavings),
			amount(o.TotalSavings),
			strconv.FormatFloat(o.ApprovalProbability, 'f', 4, 64),
			strconv.FormatFloat(o.StabilityScore, 'f', 2, 64),
			strconv.FormatBool(o.VisaFundMet),
			string(o.PathName),
		})
	}
	return writeAll(w, []string{
		"index", "upskill_boost", "expense_reduction", "side_income", "salary", "expenses",
		"monthly_savings", "total_savings", "approval_probability", "stability_score",
		"visa_fund_met", "path_name",
	}, rows)
}

// CsvProfiles outputs rule profiles in comma-separated value format.
func CsvProfiles(w io.Writer, profiles []vtc.Profile) error {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []string{
			p.Name,
			amount(p.DailyLimit),
			amount(p.MaxSingleTransaction),
			amount(p.MaxInternationalTransaction),
			amount(p.MaxATMWithdrawal),
			strconv.FormatBool(p.AllowATM),
			strconv.FormatBool(p.BlockHighRiskMerchants),
		})
	}
	return writeAll(w, []string{
		"name", "daily_limit", "max_single_transaction", "max_international_transaction",
		"max_atm_withdrawal", "allow_atm", "block_high_risk_merchants",
	}, rows)
}

// CsvCountries outputs a country comparison in comma-separated value format.
func CsvCountries(w io.Writer, rows []catalog.CountryCost) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Country,
			r.City,
			r.Currency,
			amount(r.MonthlyCostLocal),
			amount(r.MonthlyCostEUR),
			strconv.FormatFloat(r.PPPIndex, 'f', 2, 64),
			amount(r.AvgTechSalary),
		})
	}
	return writeAll(w, []string{
		"country", "city", "currency", "monthly_cost_local", "monthly_cost_eur", "ppp_index", "avg_tech_salary",
	}, records)
}
