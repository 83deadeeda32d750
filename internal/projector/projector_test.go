package projector

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/iwvelando/relocation-forecast/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlinRequest() Request {
	return Request{
		BaseSalary:   5000,
		BaseExpenses: 3500,
		Levers: LeverSet{
			UpskillBoost:     []float64{0, 0.25},
			ExpenseReduction: []float64{0, 0.1},
			SideIncome:       []float64{0},
		},
		Months:             12,
		RequiredFundAmount: 11208,
		TargetFundMonths:   12,
		Currency:           "EUR",
	}
}

func TestProjectCrossProduct(t *testing.T) {
	result, err := Project(context.Background(), berlinRequest())
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, 4, result.Statistics.TotalScenarios)

	for i, o := range result.Outcomes {
		assert.Equal(t, i, o.Index)
		if o.UpskillBoost == 0.25 {
			assert.Equal(t, PathCareerAccelerator, o.PathName)
		}
	}

	first := result.Outcomes[0]
	assert.Equal(t, PathSteadyProgress, first.PathName)
	assert.InDelta(t, 5000.0, first.Salary, 1e-9)
	assert.InDelta(t, 1500.0, first.MonthlySavings, 1e-9)
	assert.InDelta(t, 18000.0, first.TotalSavings, 1e-9)
	assert.InDelta(t, 0.5+0.3*1500.0/3500.0, first.ApprovalProbability, 1e-9)
	assert.InDelta(t, 30.0, first.StabilityScore, 1e-9)
	assert.True(t, first.VisaFundMet)
	assert.Equal(t, "Current trajectory maintained", first.PathDescription)

	assert.Equal(t, PathBalancedGrowth, result.Outcomes[1].PathName)
	assert.Equal(t, first, result.Baseline)
}

func TestProjectRanking(t *testing.T) {
	result, err := Project(context.Background(), berlinRequest())
	require.NoError(t, err)

	require.Len(t, result.TopPaths, 3)
	assert.Equal(t, []int{3, 2, 1}, indexes(result.TopPaths))
	assert.InDelta(t, 1.0, result.Statistics.VisaFundSuccessRate, 1e-9)
	assert.InDelta(t, 5625.0, result.Statistics.Salary.Avg, 1e-9)
	assert.InDelta(t, 5000.0, result.Statistics.Salary.Min, 1e-9)
	assert.InDelta(t, 6250.0, result.Statistics.Salary.Max, 1e-9)
	assert.Contains(t, result.Comparison, "The Career Accelerator Path offers the highest success probability")
}

func TestProjectVisaFundDominatesRanking(t *testing.T) {
	req := berlinRequest()
	req.BaseSalary = 3600
	req.RequiredFundAmount = 12000
	req.TopN = 4

	result, err := Project(context.Background(), req)
	require.NoError(t, err)

	// Only the upskilled combinations reach the fund target.
	assert.Equal(t, []int{3, 2, 1, 0}, indexes(result.TopPaths))
	assert.True(t, result.TopPaths[0].VisaFundMet)
	assert.True(t, result.TopPaths[1].VisaFundMet)
	assert.False(t, result.TopPaths[2].VisaFundMet)
	assert.InDelta(t, 0.5, result.Statistics.VisaFundSuccessRate, 1e-9)
}

func TestProjectTopNIsSorted(t *testing.T) {
	req := Request{
		BaseSalary:         3200,
		BaseExpenses:       2900,
		Levers:             DefaultLevers(),
		Months:             12,
		RequiredFundAmount: 9120,
		TargetFundMonths:   12,
		TopN:               27,
	}

	result, err := Project(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.TopPaths, 27)

	for i := 1; i < len(result.TopPaths); i++ {
		prev, cur := result.TopPaths[i-1], result.TopPaths[i]
		cmp := CompareRank(prev, cur)
		assert.GreaterOrEqual(t, cmp, 0, "position %d ranks above %d", i, i-1)
		if cmp == 0 {
			assert.Less(t, prev.Index, cur.Index, "ties must keep enumeration order")
		}
	}
}

func TestProjectTieBreakKeepsEnumerationOrder(t *testing.T) {
	req := berlinRequest()
	req.Levers = LeverSet{
		UpskillBoost:     []float64{0},
		ExpenseReduction: []float64{0},
		SideIncome:       []float64{0, 100, 0},
	}

	result, err := Project(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, indexes(result.TopPaths))
}

func TestProjectTopNDefaultAndOverflow(t *testing.T) {
	req := Request{
		BaseSalary:         5000,
		BaseExpenses:       3000,
		Levers:             DefaultLevers(),
		Months:             12,
		RequiredFundAmount: 1000,
		TargetFundMonths:   6,
	}

	result, err := Project(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.TopPaths, 3)
	assert.Len(t, result.Outcomes, 27)

	req.TopN = 100
	result, err = Project(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.TopPaths, 27)
}

func TestApprovalProbabilityBounds(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		expect float64
	}{
		{
			name: "clamped high",
			req: Request{
				BaseSalary: 50000, BaseExpenses: 1000,
				Levers: LeverSet{UpskillBoost: []float64{0}, ExpenseReduction: []float64{0}, SideIncome: []float64{0}},
				Months: 12, TargetFundMonths: 12,
			},
			expect: MaxApprovalProbability,
		},
		{
			name: "clamped low",
			req: Request{
				BaseSalary: 0, BaseExpenses: 1000,
				Levers: LeverSet{UpskillBoost: []float64{0}, ExpenseReduction: []float64{0, -1}, SideIncome: []float64{0}},
				Months: 12, TargetFundMonths: 12,
			},
			expect: MinApprovalProbability,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Project(context.Background(), tt.req)
			require.NoError(t, err)
			last := result.Outcomes[len(result.Outcomes)-1]
			assert.Equal(t, tt.expect, last.ApprovalProbability)
		})
	}
}

func TestApprovalProbabilityMonotonicInUpskill(t *testing.T) {
	upskill := make([]float64, 0, 21)
	for i := 0; i <= 20; i++ {
		upskill = append(upskill, float64(i)*0.05)
	}
	req := Request{
		BaseSalary:   3000,
		BaseExpenses: 2500,
		Levers: LeverSet{
			UpskillBoost:     upskill,
			ExpenseReduction: []float64{-0.5, 0, 0.3},
			SideIncome:       []float64{0, 1000},
		},
		Months:             12,
		RequiredFundAmount: 10000,
		TargetFundMonths:   12,
	}

	result, err := Project(context.Background(), req)
	require.NoError(t, err)

	type key struct{ expense, side float64 }
	groups := make(map[key][]Outcome)
	for _, o := range result.Outcomes {
		assert.GreaterOrEqual(t, o.ApprovalProbability, MinApprovalProbability)
		assert.LessOrEqual(t, o.ApprovalProbability, MaxApprovalProbability)
		assert.GreaterOrEqual(t, o.StabilityScore, 0.0)
		assert.LessOrEqual(t, o.StabilityScore, MaxStabilityScore)
		k := key{o.ExpenseReduction, o.SideIncome}
		groups[k] = append(groups[k], o)
	}

	for k, group := range groups {
		sort.SliceStable(group, func(i, j int) bool { return group[i].UpskillBoost < group[j].UpskillBoost })
		for i := 1; i < len(group); i++ {
			assert.GreaterOrEqual(t, group[i].ApprovalProbability, group[i-1].ApprovalProbability,
				"expense=%v side=%v upskill %v -> %v", k.expense, k.side, group[i-1].UpskillBoost, group[i].UpskillBoost)
		}
	}
}

func TestStabilityScoreWithZeroSalary(t *testing.T) {
	req := berlinRequest()
	req.BaseSalary = 0
	result, err := Project(context.Background(), req)
	require.NoError(t, err)
	for _, o := range result.Outcomes {
		assert.Zero(t, o.StabilityScore)
		assert.False(t, o.VisaFundMet)
	}
	assert.Zero(t, result.Statistics.VisaFundSuccessRate)
}

func TestProjectIsDeterministic(t *testing.T) {
	levers := LeverSet{}
	for i := 0; i < 10; i++ {
		levers.UpskillBoost = append(levers.UpskillBoost, float64(i)*0.03)
		levers.ExpenseReduction = append(levers.ExpenseReduction, float64(i)*0.02)
		levers.SideIncome = append(levers.SideIncome, float64(i)*50)
	}
	req := Request{
		BaseSalary:         4000,
		BaseExpenses:       3000,
		Levers:             levers,
		Months:             24,
		RequiredFundAmount: 12000,
		TargetFundMonths:   12,
		TopN:               10,
	}

	first, err := Project(context.Background(), req)
	require.NoError(t, err)
	second, err := Project(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first.Outcomes, 1000)
}

func TestProjectHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Project(ctx, berlinRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProjectValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *Request)
		wantField string
	}{
		{"zero expenses", func(r *Request) { r.BaseExpenses = 0 }, "baseExpenses"},
		{"negative expenses", func(r *Request) { r.BaseExpenses = -100 }, "baseExpenses"},
		{"negative salary", func(r *Request) { r.BaseSalary = -1 }, "baseSalary"},
		{"NaN salary", func(r *Request) { r.BaseSalary = math.NaN() }, "baseSalary"},
		{"zero months", func(r *Request) { r.Months = 0 }, "months"},
		{"zero fund months", func(r *Request) { r.TargetFundMonths = 0 }, "targetFundMonths"},
		{"negative fund amount", func(r *Request) { r.RequiredFundAmount = -5 }, "requiredFundAmount"},
		{"negative topN", func(r *Request) { r.TopN = -1 }, "topN"},
		{"empty upskill", func(r *Request) { r.Levers.UpskillBoost = nil }, "levers.upskillBoost"},
		{"empty side income", func(r *Request) { r.Levers.SideIncome = []float64{} }, "levers.sideIncome"},
		{"negative upskill", func(r *Request) { r.Levers.UpskillBoost = []float64{0, -0.1} }, "levers.upskillBoost[1]"},
		{"full expense cut", func(r *Request) { r.Levers.ExpenseReduction = []float64{0, 1} }, "levers.expenseReduction[1]"},
		{"negative side income", func(r *Request) { r.Levers.SideIncome = []float64{-10, 0} }, "levers.sideIncome[0]"},
		{"missing neutral upskill", func(r *Request) { r.Levers.UpskillBoost = []float64{0.1, 0.2} }, "levers.upskillBoost"},
		{"missing neutral expense", func(r *Request) { r.Levers.ExpenseReduction = []float64{0.1} }, "levers.expenseReduction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := berlinRequest()
			tt.mutate(&req)

			_, err := Project(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, validation.ErrValidation))

			var ve *validation.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestRankDoesNotModifyInput(t *testing.T) {
	outcomes := []Outcome{
		{Index: 0, ApprovalProbability: 0.2},
		{Index: 1, ApprovalProbability: 0.9},
	}
	ranked := Rank(outcomes, 5)
	assert.Equal(t, []int{1, 0}, indexes(ranked))
	assert.Equal(t, []int{0, 1}, indexes(outcomes))
}

func indexes(outcomes []Outcome) []int {
	out := make([]int, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Index
	}
	return out
}
