package integration

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/iwvelando/relocation-forecast/internal/catalog"
	"github.com/iwvelando/relocation-forecast/internal/config"
	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/report"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/iwvelando/relocation-forecast/pkg/mathutil"
	"github.com/iwvelando/relocation-forecast/pkg/output"
	"github.com/iwvelando/relocation-forecast/pkg/testutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	testConfig       = "../test_config.yaml"
	testTransactions = "../test_transactions.yaml"
)

func loadConfig(t *testing.T) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration(testConfig)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf
}

func loadTransactions(t *testing.T) []vtc.Transaction {
	t.Helper()
	data, err := os.ReadFile(testTransactions)
	if err != nil {
		t.Fatalf("failed to read transactions: %v", err)
	}
	var doc struct {
		Transactions []vtc.Transaction `yaml:"transactions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("failed to parse transactions: %v", err)
	}
	return doc.Transactions
}

func TestConfigurationLoaded(t *testing.T) {
	conf := loadConfig(t)

	if conf.Output.Format != constants.OutputFormatCSV {
		t.Errorf("output format = %q, want csv", conf.Output.Format)
	}
	if conf.Levers.Size() != 12 {
		t.Errorf("lever combinations = %d, want 12", conf.Levers.Size())
	}

	profiles, err := conf.RuleProfiles()
	if err != nil {
		t.Fatalf("RuleProfiles() error = %v", err)
	}
	if len(profiles.Names()) != 4 {
		t.Errorf("profiles = %v, want the three built-ins plus relocation", profiles.Names())
	}

	conservative, err := profiles.Lookup(vtc.ProfileConservative)
	if err != nil {
		t.Fatalf("Lookup(conservative) error = %v", err)
	}
	if conservative.DailyLimit != 800 {
		t.Errorf("conservative daily limit = %.2f, want 800", conservative.DailyLimit)
	}
	if conservative.MaxSingleTransaction != 500 {
		t.Errorf("partial override lost maxSingleTransaction: %.2f", conservative.MaxSingleTransaction)
	}
}

func TestClassifyEndToEnd(t *testing.T) {
	conf := loadConfig(t)
	profiles, err := conf.RuleProfiles()
	if err != nil {
		t.Fatalf("RuleProfiles() error = %v", err)
	}
	profile, err := profiles.Lookup(conf.Report.Profile)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	results, err := vtc.Classify(loadTransactions(t), profile)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	expected := []struct {
		description string
		status      vtc.Status
		reason      string
	}{
		{"Apartment deposit", vtc.StatusApproved, ""},
		{"Supermarket", vtc.StatusApproved, ""},
		{"Cash for the landlord", vtc.StatusDeclined, vtc.ReasonATMLimit},
		{"Weekend flight", vtc.StatusFlagged, vtc.ReasonHighRiskMerchant},
		{"Welcome dinner", vtc.StatusDeclined, vtc.ReasonDailyLimit},
	}
	for _, want := range expected {
		got := testutil.FindResult(results, want.description)
		if got == nil {
			t.Errorf("missing result for %s", want.description)
			continue
		}
		if got.Status != want.status || got.Reason != want.reason {
			t.Errorf("%s: got %s (%q), want %s (%q)", want.description, got.Status, got.Reason, want.status, want.reason)
		}
	}

	for status, want := range map[vtc.Status]int{
		vtc.StatusApproved: 2,
		vtc.StatusDeclined: 2,
		vtc.StatusFlagged:  1,
	} {
		if got := testutil.CountStatus(results, status); got != want {
			t.Errorf("%s results = %d, want %d", status, got, want)
		}
	}

	summary := vtc.Summarize(results)
	if summary.ApprovedCount != 2 || summary.DeclinedCount != 2 || summary.FlaggedCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/2/1", summary.ApprovedCount, summary.DeclinedCount, summary.FlaggedCount)
	}
	if !mathutil.WithinTolerance(summary.PotentialSavings, 490, constants.CurrencyTolerance) {
		t.Errorf("potential savings = %.2f, want 490", summary.PotentialSavings)
	}
	if !mathutil.WithinTolerance(summary.ApprovalRate, 0.4, constants.CurrencyTolerance) {
		t.Errorf("approval rate = %.2f, want 0.4", summary.ApprovalRate)
	}
}

func projectionRequest(t *testing.T, conf *config.Configuration) projector.Request {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	city, err := cat.CostOfLiving(conf.Report.Country, conf.Report.City)
	if err != nil {
		t.Fatalf("CostOfLiving() error = %v", err)
	}
	expenses, err := cat.MonthlyExpenses(conf.Report.Country, conf.Report.City)
	if err != nil {
		t.Fatalf("MonthlyExpenses() error = %v", err)
	}
	return projector.Request{
		BaseSalary:         city.AvgSalaryTech,
		BaseExpenses:       expenses.Total,
		Levers:             conf.Levers,
		Months:             conf.Projection.Months,
		RequiredFundAmount: city.VisaFundProof,
		TargetFundMonths:   conf.Projection.TargetFundMonths,
		TopN:               conf.Projection.TopN,
		Currency:           city.Currency,
	}
}

func TestProjectEndToEnd(t *testing.T) {
	conf := loadConfig(t)
	req := projectionRequest(t, conf)

	result, err := projector.Project(context.Background(), req)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if result.Statistics.TotalScenarios != 12 {
		t.Errorf("scenarios = %d, want 12", result.Statistics.TotalScenarios)
	}
	if len(result.TopPaths) != 4 {
		t.Fatalf("top paths = %d, want 4", len(result.TopPaths))
	}
	for i := 1; i < len(result.TopPaths); i++ {
		if projector.CompareRank(result.TopPaths[i-1], result.TopPaths[i]) < 0 {
			t.Errorf("top paths out of order at %d", i)
		}
	}

	neutral := testutil.FindOutcome(result.Outcomes, 0, 0, 0)
	if neutral == nil {
		t.Fatal("neutral combination missing")
	}
	if projector.CompareRank(result.TopPaths[0], *neutral) < 0 {
		t.Errorf("best path %s ranks below the neutral combination", result.TopPaths[0].PathName)
	}
}

func TestSampleReproducible(t *testing.T) {
	conf := loadConfig(t)
	req := projectionRequest(t, conf)

	first, err := projector.Sample(context.Background(), req, 50, conf.Projection.Seed)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	second, err := projector.Sample(context.Background(), req, 50, conf.Projection.Seed)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	if len(first.Outcomes) != len(second.Outcomes) {
		t.Fatalf("outcome counts differ: %d vs %d", len(first.Outcomes), len(second.Outcomes))
	}
	for i := range first.Outcomes {
		if first.Outcomes[i] != second.Outcomes[i] {
			t.Fatalf("outcome %d differs between runs with the same seed", i)
		}
	}
}

func TestReportEndToEnd(t *testing.T) {
	conf := loadConfig(t)
	profiles, err := conf.RuleProfiles()
	if err != nil {
		t.Fatalf("RuleProfiles() error = %v", err)
	}
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	builder, err := report.NewBuilder(zap.NewNop(), profiles, cat)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	rep, err := builder.Build(context.Background(), report.Request{
		Country:          conf.Report.Country,
		City:             conf.Report.City,
		Profile:          conf.Report.Profile,
		Transactions:     loadTransactions(t),
		Levers:           conf.Levers,
		Months:           conf.Projection.Months,
		TargetFundMonths: conf.Projection.TargetFundMonths,
		TopN:             conf.Projection.TopN,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if rep.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", rep.Currency)
	}
	if rep.Profile.Name != "relocation" {
		t.Errorf("profile = %q, want relocation", rep.Profile.Name)
	}
	if len(rep.Projection.TopPaths) != 4 {
		t.Errorf("top paths = %d, want 4", len(rep.Projection.TopPaths))
	}
	if !strings.Contains(rep.GuardianMessage, "calling from Portugal") {
		t.Errorf("guardian message missing destination: %s", rep.GuardianMessage)
	}
	if !strings.Contains(rep.GuardianMessage, "I blocked 2 transactions totaling €490.") {
		t.Errorf("guardian message missing blocked total: %s", rep.GuardianMessage)
	}

	for _, format := range []string{
		constants.OutputFormatPretty,
		constants.OutputFormatCSV,
		constants.OutputFormatJSON,
		constants.OutputFormatYAML,
	} {
		var buf bytes.Buffer
		if err := output.Render(&buf, format, rep); err != nil {
			t.Errorf("Render(%s) error = %v", format, err)
			continue
		}
		if buf.Len() == 0 {
			t.Errorf("Render(%s) wrote nothing", format)
		}
	}
}
