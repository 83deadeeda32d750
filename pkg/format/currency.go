// Package format renders money and percentages for display.
package format

import (
	"strings"

	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "C$",
	"AUD": "A$",
	"SGD": "S$",
	"AED": "AED ",
}

var printer = message.NewPrinter(language.English)

// Symbol returns the display symbol for an ISO currency code, falling back
// to the default symbol for unknown codes.
func Symbol(code string) string {
	if s, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return s
	}
	return constants.DefaultCurrencySymbol
}

// Money renders amount with the symbol for currency and thousands
// separators, e.g. "-$1,234.56".
func Money(amount float64, currency string) string {
	symbol := Symbol(currency)
	if amount < 0 {
		return "-" + symbol + printer.Sprintf("%.2f", -amount)
	}
	return symbol + printer.Sprintf("%.2f", amount)
}

// Percent renders a fraction as a whole-number percentage (0.25 -> "25%").
func Percent(fraction float64) string {
	return printer.Sprintf("%.0f%%", fraction*constants.PercentageMultiplier)
}
