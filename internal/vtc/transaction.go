// Package vtc classifies proposed transactions against Visa Transaction
// Control (VTC) spending-limit profiles and aggregates the outcome.
package vtc

import (
	"fmt"
	"strings"
)

// Category is the closed set of merchant categories a transaction can carry.
type Category string

// Supported categories.
const (
	CategoryHousing       Category = "housing"
	CategoryGroceries     Category = "groceries"
	CategoryTransport     Category = "transport"
	CategoryUtilities     Category = "utilities"
	CategoryDining        Category = "dining"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryTravel        Category = "travel"
	CategoryATM           Category = "atm"
	CategorySubscription  Category = "subscription"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryHousing,
	CategoryGroceries,
	CategoryTransport,
	CategoryUtilities,
	CategoryDining,
	CategoryShopping,
	CategoryEntertainment,
	CategoryTravel,
	CategoryATM,
	CategorySubscription,
}

// RiskLevel groups categories for display and for the high-risk merchant rule.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseCategory converts s to a Category, ignoring case and surrounding space.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryHousing, CategoryGroceries, CategoryTransport, CategoryUtilities,
		CategoryDining, CategoryShopping, CategoryEntertainment, CategoryTravel,
		CategoryATM, CategorySubscription:
		return true
	}
	return false
}

// RiskLevel returns the fixed risk level of c. Unknown categories report
// medium; they are rejected before classification anyway.
func (c Category) RiskLevel() RiskLevel {
	switch c {
	case CategoryHousing, CategoryGroceries, CategoryTransport, CategoryUtilities, CategoryATM:
		return RiskLow
	case CategoryTravel:
		return RiskHigh
	default:
		return RiskMedium
	}
}

// Location says whether a transaction is made at home or abroad.
type Location string

// Locations.
const (
	LocationDomestic      Location = "domestic"
	LocationInternational Location = "international"
)

// ParseLocation converts s to a Location, ignoring case and surrounding space.
func ParseLocation(s string) (Location, error) {
	l := Location(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown location %q", s)
	}
	return l, nil
}

// Valid reports whether l is domestic or international.
func (l Location) Valid() bool {
	return l == LocationDomestic || l == LocationInternational
}

// Status is the decision reached for a transaction.
type Status string

// Decisions.
const (
	StatusApproved Status = "Approved"
	StatusDeclined Status = "Declined"
	StatusFlagged  Status = "Flagged"
)

// Transaction is a proposed spend to be checked against a profile.
type Transaction struct {
	Description string   `json:"description" yaml:"description" mapstructure:"description" validate:"notblank"`
	Amount      float64  `json:"amount" yaml:"amount" mapstructure:"amount" validate:"finite,gt=0"`
	Category    Category `json:"category" yaml:"category" mapstructure:"category"`
	Location    Location `json:"location" yaml:"location" mapstructure:"location"`
}

// Result is the classification of a single transaction.
type Result struct {
	Transaction       `yaml:",inline"`
	RiskLevel         RiskLevel `json:"riskLevel" yaml:"riskLevel"`
	Status            Status    `json:"status" yaml:"status"`
	Reason            string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	RunningDailyTotal float64   `json:"runningDailyTotal" yaml:"runningDailyTotal"`
	SavingsImpact     float64   `json:"savingsImpact" yaml:"savingsImpact"`
}

// SampleTransactions returns a representative first-month spending list for
// someone who has just relocated abroad.
func SampleTransactions() []Transaction {
	return []Transaction{
		{Description: "Monthly Rent", Amount: 1200, Category: CategoryHousing, Location: LocationInternational},
		{Description: "Grocery Store", Amount: 85, Category: CategoryGroceries, Location: LocationInternational},
		{Description: "Metro Pass", Amount: 86, Category: CategoryTransport, Location: LocationInternational},
		{Description: "Restaurant Dinner", Amount: 65, Category: CategoryDining, Location: LocationInternational},
		{Description: "Laptop Purchase", Amount: 1200, Category: CategoryShopping, Location: LocationInternational},
		{Description: "Utility Bills", Amount: 180, Category: CategoryUtilities, Location: LocationInternational},
		{Description: "ATM Withdrawal", Amount: 200, Category: CategoryATM, Location: LocationInternational},
		{Description: "Online Course", Amount: 150, Category: CategorySubscription, Location: LocationDomestic},
		{Description: "Streaming Bundle", Amount: 25, Category: CategoryEntertainment, Location: LocationInternational},
		{Description: "Weekend Trip", Amount: 450, Category: CategoryTravel, Location: LocationInternational},
	}
}
