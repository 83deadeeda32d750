// Package report combines the transaction classifier, the scenario projector
// and the country catalog into a single relocation report.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/iwvelando/relocation-forecast/internal/catalog"
	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/iwvelando/relocation-forecast/pkg/format"
	"github.com/iwvelando/relocation-forecast/pkg/validation"
	"go.uber.org/zap"
)

// guardianSavingsThreshold is the declined total above which the guardian
// message points at the visa fund.
const guardianSavingsThreshold = 500

// Request describes one report. Zero numeric fields fall back to catalog data
// (salary, expenses, required fund) or to the projection defaults.
type Request struct {
	Country      string            `json:"country" yaml:"country" validate:"notblank"`
	City         string            `json:"city,omitempty" yaml:"city,omitempty"`
	Profile      string            `json:"profile,omitempty" yaml:"profile,omitempty"`
	Transactions []vtc.Transaction `json:"transactions" yaml:"transactions"`
	AlreadySpent float64           `json:"alreadySpent,omitempty" yaml:"alreadySpent,omitempty" validate:"finite,gte=0"`

	Salary             float64            `json:"salary,omitempty" yaml:"salary,omitempty" validate:"finite,gte=0"`
	Expenses           float64            `json:"expenses,omitempty" yaml:"expenses,omitempty" validate:"finite,gte=0"`
	RequiredFundAmount float64            `json:"requiredFundAmount,omitempty" yaml:"requiredFundAmount,omitempty" validate:"finite,gte=0"`
	Levers             projector.LeverSet `json:"levers" yaml:"levers" validate:"-"`
	Months             int                `json:"months,omitempty" yaml:"months,omitempty" validate:"gte=0"`
	TargetFundMonths   int                `json:"targetFundMonths,omitempty" yaml:"targetFundMonths,omitempty" validate:"gte=0"`
	TopN               int                `json:"topN,omitempty" yaml:"topN,omitempty" validate:"gte=0"`
}

// Report is the combined output.
type Report struct {
	Country         string                  `json:"country" yaml:"country"`
	City            string                  `json:"city" yaml:"city"`
	Currency        string                  `json:"currency" yaml:"currency"`
	Profile         vtc.Profile             `json:"profile" yaml:"profile"`
	Expenses        catalog.MonthlyExpenses `json:"expenses" yaml:"expenses"`
	Visa            catalog.VisaRequirement `json:"visa" yaml:"visa"`
	Salary          float64                 `json:"salary" yaml:"salary"`
	RequiredFund    float64                 `json:"requiredFund" yaml:"requiredFund"`
	Classification  []vtc.Result            `json:"classification" yaml:"classification"`
	Summary         vtc.Summary             `json:"summary" yaml:"summary"`
	Recommendations []string                `json:"recommendations" yaml:"recommendations"`
	Projection      projector.Result        `json:"projection" yaml:"projection"`
	GuardianMessage string                  `json:"guardianMessage" yaml:"guardianMessage"`
}

// Builder produces reports against a fixed profile set and catalog.
type Builder struct {
	logger   *zap.Logger
	profiles *vtc.Profiles
	catalog  *catalog.Catalog
}

// NewBuilder constructs a Builder. A nil logger disables logging.
func NewBuilder(logger *zap.Logger, profiles *vtc.Profiles, cat *catalog.Catalog) (*Builder, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profiles cannot be nil")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger, profiles: profiles, catalog: cat}, nil
}

// Build resolves the destination, classifies the transactions, projects the
// lever scenarios and writes the guardian message.
func (b *Builder) Build(ctx context.Context, req Request) (Report, error) {
	if err := validation.Struct("", req); err != nil {
		return Report{}, err
	}

	profileName := req.Profile
	if strings.TrimSpace(profileName) == "" {
		profileName = constants.DefaultRuleProfile
	}
	profile, err := b.profiles.Lookup(profileName)
	if err != nil {
		return Report{}, err
	}

	col, err := b.catalog.CostOfLiving(req.Country, req.City)
	if err != nil {
		return Report{}, err
	}
	country, err := b.catalog.Country(req.Country)
	if err != nil {
		return Report{}, err
	}
	expenses, err := b.catalog.MonthlyExpenses(country.Name, col.Name)
	if err != nil {
		return Report{}, err
	}

	results, err := vtc.ClassifyFrom(req.Transactions, profile, req.AlreadySpent)
	if err != nil {
		return Report{}, fmt.Errorf("classification failed: %w", err)
	}
	summary := vtc.Summarize(results)
	recommendations := vtc.Recommendations(results, profile, col.Currency)

	projection := b.projectionRequest(req, col, expenses)
	projected, err := projector.Project(ctx, projection)
	if err != nil {
		return Report{}, fmt.Errorf("projection failed: %w", err)
	}

	b.logger.Debug("built relocation report",
		zap.String("op", "report.Build"),
		zap.String("country", country.Name),
		zap.String("city", col.Name),
		zap.String("profile", profile.Name),
		zap.Int("transactions", len(results)),
		zap.Int("scenarios", projected.Statistics.TotalScenarios),
	)

	return Report{
		Country:         country.Name,
		City:            col.Name,
		Currency:        col.Currency,
		Profile:         profile,
		Expenses:        expenses,
		Visa:            country.Visa,
		Salary:          projection.BaseSalary,
		RequiredFund:    projection.RequiredFundAmount,
		Classification:  results,
		Summary:         summary,
		Recommendations: recommendations,
		Projection:      projected,
		GuardianMessage: GuardianMessage(country.Name, col.Currency, summary, recommendations, projected.TopPaths),
	}, nil
}

func (b *Builder) projectionRequest(req Request, col catalog.City, expenses catalog.MonthlyExpenses) projector.Request {
	p := projector.Request{
		BaseSalary:         req.Salary,
		BaseExpenses:       req.Expenses,
		Levers:             req.Levers,
		Months:             req.Months,
		RequiredFundAmount: req.RequiredFundAmount,
		TargetFundMonths:   req.TargetFundMonths,
		TopN:               req.TopN,
		Currency:           col.Currency,
	}
	if p.BaseSalary == 0 {
		p.BaseSalary = col.AvgSalaryTech
	}
	if p.BaseExpenses == 0 {
		p.BaseExpenses = expenses.Total
	}
	if p.RequiredFundAmount == 0 {
		p.RequiredFundAmount = col.VisaFundProof
	}
	if p.Levers.Empty() {
		p.Levers = projector.DefaultLevers()
	}
	if p.Months == 0 {
		p.Months = constants.DefaultProjectionMonths
	}
	if p.TargetFundMonths == 0 {
		p.TargetFundMonths = constants.DefaultTargetFundMonths
	}
	return p
}

// GuardianMessage renders the plain-language summary read back to the user.
// Amounts use the symbol for currency.
func GuardianMessage(country, currency string, summary vtc.Summary, recommendations []string, topPaths []projector.Outcome) string {
	var sb strings.Builder
	symbol := format.Symbol(currency)

	fmt.Fprintf(&sb, "Hello, this is your Financial Guardian calling from %s. ", country)
	sb.WriteString("I've analyzed your simulated transactions using Visa Transaction Controls. ")

	if summary.DeclinedCount > 0 {
		fmt.Fprintf(&sb, "I blocked %d transactions totaling %s%.0f. ", summary.DeclinedCount, symbol, summary.TotalDeclined)
		sb.WriteString("This wasn't to restrict you, but to protect your relocation budget. ")
		if summary.PotentialSavings > guardianSavingsThreshold {
			fmt.Fprintf(&sb, "By setting these controls, you could save %s%.0f for your visa fund proof. ", symbol, summary.PotentialSavings)
		}
	} else {
		sb.WriteString("All your planned transactions would be approved with current VTC settings. ")
	}

	fmt.Fprintf(&sb, "Your approval rate is %s. ", format.Percent(summary.ApprovalRate))

	if len(recommendations) > 0 {
		fmt.Fprintf(&sb, "My top recommendation: %s ", recommendations[0])
	}

	if len(topPaths) > 0 {
		best := topPaths[0]
		fmt.Fprintf(&sb, "Looking at your alternative paths, I recommend the %s, with a %s probability of visa approval. ",
			best.PathName, format.Percent(best.ApprovalProbability))
	}

	sb.WriteString("Remember, this is a simulated planning tool to help you prepare financially. ")
	sb.WriteString("Set up real Visa controls before your move for seamless international spending.")
	return sb.String()
}
