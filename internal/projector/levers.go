package projector

import (
	"fmt"

	"github.com/iwvelando/relocation-forecast/pkg/validation"
)

// LeverSet holds the discrete values each financial lever can take. Every
// sequence is non-empty and contains the neutral value 0.
type LeverSet struct {
	// UpskillBoost is a fractional salary increase (0.25 = +25%).
	UpskillBoost []float64 `json:"upskillBoost" yaml:"upskillBoost" mapstructure:"upskillBoost" validate:"min=1,dive,finite,gte=0"`
	// ExpenseReduction is a fractional expense cut. Negative values model an
	// expense increase.
	ExpenseReduction []float64 `json:"expenseReduction" yaml:"expenseReduction" mapstructure:"expenseReduction" validate:"min=1,dive,finite,lt=1"`
	// SideIncome is a flat monthly amount added to income.
	SideIncome []float64 `json:"sideIncome" yaml:"sideIncome" mapstructure:"sideIncome" validate:"min=1,dive,finite,gte=0"`
}

// DefaultLevers returns the reference lever configuration (3x3x3).
func DefaultLevers() LeverSet {
	return LeverSet{
		UpskillBoost:     []float64{0, 0.15, 0.25},
		ExpenseReduction: []float64{0, 0.1, 0.2},
		SideIncome:       []float64{0, 200, 500},
	}
}

// Size is the number of combinations in the cross product.
func (l LeverSet) Size() int {
	return len(l.UpskillBoost) * len(l.ExpenseReduction) * len(l.SideIncome)
}

// Empty reports whether no lever list was given at all. A set with only some
// lists empty is not Empty; it fails Validate instead.
func (l LeverSet) Empty() bool {
	return len(l.UpskillBoost) == 0 && len(l.ExpenseReduction) == 0 && len(l.SideIncome) == 0
}

// combination is one point of the cross product along with its position in
// the canonical enumeration order.
type combination struct {
	index            int
	upskillBoost     float64
	expenseReduction float64
	sideIncome       float64
}

// combinations enumerates the cross product with upskill as the outer loop,
// then expense reduction, then side income.
func (l LeverSet) combinations() []combination {
	combos := make([]combination, 0, l.Size())
	for _, u := range l.UpskillBoost {
		for _, e := range l.ExpenseReduction {
			for _, s := range l.SideIncome {
				combos = append(combos, combination{
					index:            len(combos),
					upskillBoost:     u,
					expenseReduction: e,
					sideIncome:       s,
				})
			}
		}
	}
	return combos
}

func missingNeutral(values []float64) bool {
	for _, v := range values {
		if v == 0 {
			return false
		}
	}
	return true
}

func (l LeverSet) neutralCheck() (string, bool) {
	switch {
	case missingNeutral(l.UpskillBoost):
		return "levers.upskillBoost", false
	case missingNeutral(l.ExpenseReduction):
		return "levers.expenseReduction", false
	case missingNeutral(l.SideIncome):
		return "levers.sideIncome", false
	}
	return "", true
}

// Validate checks the lever sequences on their own, reporting fields under
// the "levers" prefix.
func (l LeverSet) Validate() error {
	if err := validation.Struct("levers", l); err != nil {
		return err
	}
	if field, ok := l.neutralCheck(); !ok {
		return validation.NewValidationError(field, "must include the neutral value 0")
	}
	return nil
}

func (l LeverSet) String() string {
	return fmt.Sprintf("upskill=%v expenseReduction=%v sideIncome=%v", l.UpskillBoost, l.ExpenseReduction, l.SideIncome)
}
