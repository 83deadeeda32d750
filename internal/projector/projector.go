// Package projector enumerates financial lever combinations for a relocation
// budget, scores each outcome and ranks the resulting paths.
package projector

import (
	"context"
	"runtime"
	"sort"

	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/iwvelando/relocation-forecast/pkg/mathutil"
	"github.com/iwvelando/relocation-forecast/pkg/validation"
	"golang.org/x/sync/errgroup"
)

// Score bounds.
const (
	MinApprovalProbability = 0.1
	MaxApprovalProbability = 0.98
	MaxStabilityScore      = 100.0
)

// Request describes a projection run.
type Request struct {
	BaseSalary         float64  `json:"baseSalary" yaml:"baseSalary" validate:"finite,gte=0"`
	BaseExpenses       float64  `json:"baseExpenses" yaml:"baseExpenses" validate:"finite,gt=0"`
	Levers             LeverSet `json:"levers" yaml:"levers"`
	Months             int      `json:"months" yaml:"months" validate:"gt=0"`
	RequiredFundAmount float64  `json:"requiredFundAmount" yaml:"requiredFundAmount" validate:"finite,gte=0"`
	TargetFundMonths   int      `json:"targetFundMonths" yaml:"targetFundMonths" validate:"gt=0"`
	// TopN is the number of ranked paths to return; 0 selects the default.
	TopN int `json:"topN,omitempty" yaml:"topN,omitempty" validate:"gte=0"`
	// Currency is an ISO code used only for descriptions.
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// Outcome is the evaluation of one lever combination.
type Outcome struct {
	// Index is the position of the combination in enumeration (or draw) order.
	Index               int      `json:"index" yaml:"index"`
	UpskillBoost        float64  `json:"upskillBoost" yaml:"upskillBoost"`
	ExpenseReduction    float64  `json:"expenseReduction" yaml:"expenseReduction"`
	SideIncome          float64  `json:"sideIncome" yaml:"sideIncome"`
	Salary              float64  `json:"salary" yaml:"salary"`
	Expenses            float64  `json:"expenses" yaml:"expenses"`
	MonthlySavings      float64  `json:"monthlySavings" yaml:"monthlySavings"`
	TotalSavings        float64  `json:"totalSavings" yaml:"totalSavings"`
	FundSavings         float64  `json:"fundSavings" yaml:"fundSavings"`
	ApprovalProbability float64  `json:"approvalProbability" yaml:"approvalProbability"`
	StabilityScore      float64  `json:"stabilityScore" yaml:"stabilityScore"`
	VisaFundMet         bool     `json:"visaFundMet" yaml:"visaFundMet"`
	PathName            PathName `json:"pathName" yaml:"pathName"`
	PathDescription     string   `json:"pathDescription" yaml:"pathDescription"`
}

// Statistics summarises every evaluated outcome.
type Statistics struct {
	Salary              mathutil.Range `json:"salary" yaml:"salary"`
	Savings             mathutil.Range `json:"savings" yaml:"savings"`
	ApprovalProbability mathutil.Range `json:"approvalProbability" yaml:"approvalProbability"`
	VisaFundSuccessRate float64        `json:"visaFundSuccessRate" yaml:"visaFundSuccessRate"`
	TotalScenarios      int            `json:"totalScenarios" yaml:"totalScenarios"`
}

// Result is the output of Project.
type Result struct {
	TopPaths   []Outcome  `json:"topPaths" yaml:"topPaths"`
	Outcomes   []Outcome  `json:"outcomes" yaml:"outcomes"`
	Statistics Statistics `json:"statistics" yaml:"statistics"`
	Baseline   Outcome    `json:"baseline" yaml:"baseline"`
	Comparison string     `json:"comparison" yaml:"comparison"`
}

// Validate checks the request; any failure is a *validation.ValidationError.
func (r Request) Validate() error {
	if err := validation.Struct("", r); err != nil {
		return err
	}
	if field, ok := r.Levers.neutralCheck(); !ok {
		return validation.NewValidationError(field, "must include the neutral value 0")
	}
	return nil
}

func (r Request) topN() int {
	if r.TopN == 0 {
		return constants.DefaultTopN
	}
	return r.TopN
}

// Project evaluates the full lever cross product. Combinations are scored
// concurrently; ranking is a stable sort over enumeration order so the result
// does not depend on scheduling.
func Project(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	combos := req.Levers.combinations()
	outcomes := make([]Outcome, len(combos))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, c := range combos {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			outcomes[c.index] = evaluate(req, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	top := Rank(outcomes, req.topN())

	result := Result{
		TopPaths:   top,
		Outcomes:   outcomes,
		Statistics: computeStatistics(outcomes),
		Baseline:   baseline(outcomes),
		Comparison: ComparePaths(top, req.Currency),
	}
	return result, nil
}

// evaluate scores a single combination.
func evaluate(req Request, c combination) Outcome {
	salary := req.BaseSalary * (1 + c.upskillBoost)
	expenses := req.BaseExpenses * (1 - c.expenseReduction)
	monthlySavings := salary + c.sideIncome - expenses

	approval := 0.5 +
		0.3*(monthlySavings/req.BaseExpenses) +
		0.1*c.upskillBoost -
		0.1*mathutil.Max(0, -c.expenseReduction)

	stability := 0.0
	if salary > 0 {
		stability = mathutil.Clamp(MaxStabilityScore*monthlySavings/salary, 0, MaxStabilityScore)
	}

	fundSavings := monthlySavings * float64(req.TargetFundMonths)

	return Outcome{
		Index:               c.index,
		UpskillBoost:        c.upskillBoost,
		ExpenseReduction:    c.expenseReduction,
		SideIncome:          c.sideIncome,
		Salary:              salary,
		Expenses:            expenses,
		MonthlySavings:      monthlySavings,
		TotalSavings:        monthlySavings * float64(req.Months),
		FundSavings:         fundSavings,
		ApprovalProbability: mathutil.Clamp(approval, MinApprovalProbability, MaxApprovalProbability),
		StabilityScore:      stability,
		VisaFundMet:         fundSavings >= req.RequiredFundAmount,
		PathName:            NamePath(c.upskillBoost, c.expenseReduction, c.sideIncome),
		PathDescription:     DescribePath(c.upskillBoost, c.expenseReduction, c.sideIncome, req.Currency),
	}
}

// CompareRank orders outcomes by visa-fund success, then approval
// probability, then total savings. It returns a positive number when a ranks
// above b, negative when below and 0 when the keys tie.
func CompareRank(a, b Outcome) int {
	if a.VisaFundMet != b.VisaFundMet {
		if a.VisaFundMet {
			return 1
		}
		return -1
	}
	switch {
	case a.ApprovalProbability > b.ApprovalProbability:
		return 1
	case a.ApprovalProbability < b.ApprovalProbability:
		return -1
	case a.TotalSavings > b.TotalSavings:
		return 1
	case a.TotalSavings < b.TotalSavings:
		return -1
	}
	return 0
}

// Rank returns the first n outcomes by CompareRank. Ties keep their input
// order. The input slice is not modified.
func Rank(outcomes []Outcome, n int) []Outcome {
	ranked := make([]Outcome, len(outcomes))
	copy(ranked, outcomes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return CompareRank(ranked[i], ranked[j]) > 0
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func computeStatistics(outcomes []Outcome) Statistics {
	salaries := make([]float64, len(outcomes))
	savings := make([]float64, len(outcomes))
	probs := make([]float64, len(outcomes))
	met := 0
	for i, o := range outcomes {
		salaries[i] = o.Salary
		savings[i] = o.TotalSavings
		probs[i] = o.ApprovalProbability
		if o.VisaFundMet {
			met++
		}
	}

	return Statistics{
		Salary:              mathutil.Summarize(salaries),
		Savings:             mathutil.Summarize(savings),
		ApprovalProbability: mathutil.Summarize(probs),
		VisaFundSuccessRate: mathutil.Ratio(float64(met), float64(len(outcomes))),
		TotalScenarios:      len(outcomes),
	}
}

// baseline returns the first all-neutral outcome, which always exists for a
// validated lever set.
func baseline(outcomes []Outcome) Outcome {
	for _, o := range outcomes {
		if o.UpskillBoost == 0 && o.ExpenseReduction == 0 && o.SideIncome == 0 {
			return o
		}
	}
	return Outcome{}
}
