package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamePath(t *testing.T) {
	tests := []struct {
		u, e, s float64
		want    PathName
	}{
		{0.25, 0.2, 500, PathCareerAccelerator},
		{0.2, 0, 0, PathCareerAccelerator},
		{0.15, 0.2, 500, PathFrugalPioneer},
		{0, 0.15, 0, PathFrugalPioneer},
		{0.15, 0.1, 500, PathHustleBuilder},
		{0, 0, 400, PathHustleBuilder},
		{0.15, 0, 200, PathBalancedGrowth},
		{0, 0.1, 0, PathBalancedGrowth},
		{0, 0, 200, PathSteadyProgress},
		{0, 0, 0, PathSteadyProgress},
		{0.1, -0.1, 0, PathSteadyProgress},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NamePath(tt.u, tt.e, tt.s), "u=%v e=%v s=%v", tt.u, tt.e, tt.s)
	}
}

func TestDescribePath(t *testing.T) {
	assert.Equal(t, "+25% salary through upskilling + 10% expense reduction + €200 side income",
		DescribePath(0.25, 0.1, 200, "EUR"))
	assert.Equal(t, "$500 side income", DescribePath(0.1, 0.05, 500, "USD"))
	assert.Equal(t, "Current trajectory maintained", DescribePath(0, 0, 0, ""))
}

func TestComparePaths(t *testing.T) {
	assert.Equal(t, "Single path analyzed.", ComparePaths(nil, "EUR"))
	assert.Equal(t, "Single path analyzed.", ComparePaths([]Outcome{{}}, "EUR"))

	paths := []Outcome{
		{PathName: PathCareerAccelerator, ApprovalProbability: 0.8, TotalSavings: 30000},
		{PathName: PathFrugalPioneer, ApprovalProbability: 0.7, TotalSavings: 24000},
	}
	text := ComparePaths(paths, "EUR")
	assert.Contains(t, text, "The Career Accelerator Path offers the highest success probability at 80%")
	assert.Contains(t, text, "Compared to Frugal Pioneer Path, it provides 10% better approval odds")
	assert.Contains(t, text, "more in projected savings.")

	paths[1].TotalSavings = 40000
	assert.Contains(t, ComparePaths(paths, "EUR"), "less in projected savings.")
}
