package vtc

import (
	"fmt"

	"github.com/iwvelando/relocation-forecast/pkg/mathutil"
	"github.com/iwvelando/relocation-forecast/pkg/validation"
)

// Decline and flag reasons.
const (
	ReasonSingleLimit        = "Exceeds single transaction limit"
	ReasonInternationalLimit = "Exceeds international transaction limit"
	ReasonATMDisabled        = "ATM withdrawals disabled for this profile"
	ReasonATMLimit           = "Exceeds ATM withdrawal limit"
	ReasonApproachingDaily   = "Approaching daily limit"
	ReasonHighRiskMerchant   = "High-risk merchant category"
	ReasonDailyLimit         = "Exceeds remaining daily limit"
)

// rule is one link of the precedence chain. running is the spent total
// before the transaction.
type rule struct {
	status Status
	reason string
	match  func(tx Transaction, p Profile, running float64) bool
}

// rules are evaluated in order and the first match wins. A transaction that
// matches none is approved.
var rules = []rule{
	{
		status: StatusDeclined,
		reason: ReasonSingleLimit,
		match: func(tx Transaction, p Profile, _ float64) bool {
			return tx.Amount > p.MaxSingleTransaction
		},
	},
	{
		status: StatusDeclined,
		reason: ReasonInternationalLimit,
		match: func(tx Transaction, p Profile, _ float64) bool {
			return tx.Location == LocationInternational && tx.Amount > p.MaxInternationalTransaction
		},
	},
	{
		status: StatusDeclined,
		reason: ReasonATMDisabled,
		match: func(tx Transaction, p Profile, _ float64) bool {
			return tx.Category == CategoryATM && !p.AllowATM
		},
	},
	{
		status: StatusDeclined,
		reason: ReasonATMLimit,
		match: func(tx Transaction, p Profile, _ float64) bool {
			return tx.Category == CategoryATM && tx.Amount > p.MaxATMWithdrawal
		},
	},
	{
		status: StatusFlagged,
		reason: ReasonApproachingDaily,
		match: func(tx Transaction, p Profile, running float64) bool {
			return tx.Category == CategoryATM && running+tx.Amount > p.DailyLimit
		},
	},
	{
		status: StatusFlagged,
		reason: ReasonHighRiskMerchant,
		match: func(tx Transaction, p Profile, _ float64) bool {
			return p.BlockHighRiskMerchants && tx.Category.RiskLevel() == RiskHigh
		},
	},
	{
		status: StatusDeclined,
		reason: ReasonDailyLimit,
		match: func(tx Transaction, p Profile, running float64) bool {
			return running+tx.Amount > p.DailyLimit
		},
	},
}

// Classify evaluates transactions in order against profile, starting from a
// zero daily total.
func Classify(transactions []Transaction, profile Profile) ([]Result, error) {
	return ClassifyFrom(transactions, profile, 0)
}

// ClassifyFrom evaluates transactions in order against profile, starting from
// alreadySpent. Approved and flagged amounts count toward the running daily
// total; declined amounts do not. All input is validated up front and no
// partial results are returned on error.
func ClassifyFrom(transactions []Transaction, profile Profile, alreadySpent float64) ([]Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if !mathutil.IsFinite(alreadySpent) || alreadySpent < 0 {
		return nil, validation.NewValidationError("alreadySpent", "must be a non-negative number, got %v", alreadySpent)
	}
	if err := ValidateTransactions(transactions); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(transactions))
	running := alreadySpent
	for _, tx := range transactions {
		status, reason := evaluate(tx, profile, running)

		result := Result{
			Transaction:       tx,
			RiskLevel:         tx.Category.RiskLevel(),
			Status:            status,
			Reason:            reason,
			RunningDailyTotal: running,
		}
		if status == StatusDeclined {
			result.SavingsImpact = tx.Amount
		} else {
			running += tx.Amount
		}
		results = append(results, result)
	}

	return results, nil
}

func evaluate(tx Transaction, profile Profile, running float64) (Status, string) {
	for _, r := range rules {
		if r.match(tx, profile, running) {
			return r.status, r.reason
		}
	}
	return StatusApproved, ""
}

// ValidateTransactions checks every transaction and reports the first
// problem found.
func ValidateTransactions(transactions []Transaction) error {
	for i, tx := range transactions {
		field := fmt.Sprintf("transactions[%d]", i)
		if err := validation.Struct(field, tx); err != nil {
			return err
		}
		if !tx.Category.Valid() {
			return validation.NewValidationError(field+".category", "unknown category %q", tx.Category)
		}
		if !tx.Location.Valid() {
			return validation.NewValidationError(field+".location", "unknown location %q", tx.Location)
		}
	}
	return nil
}

// SpentTotal returns the running daily total after all results, i.e. the
// last recorded total plus the last transaction when it was spent.
func SpentTotal(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	last := results[len(results)-1]
	if last.Status == StatusDeclined {
		return last.RunningDailyTotal
	}
	return last.RunningDailyTotal + last.Amount
}
