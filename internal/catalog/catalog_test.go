package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/relocation-forecast/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestDefaultCatalogCountries(t *testing.T) {
	c := loadDefaultCatalog(t)
	countries := c.Countries()
	require.Len(t, countries, 12)
	assert.Equal(t, "Germany", countries[0])
	assert.Contains(t, countries, "Portugal")
	assert.Contains(t, countries, "UAE")
}

func TestCities(t *testing.T) {
	c := loadDefaultCatalog(t)

	cities, err := c.Cities("Germany")
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Munich", "Frankfurt"}, cities)

	_, err = c.Cities("Atlantis")
	assert.True(t, errors.Is(err, validation.ErrConfiguration))
}

func TestCostOfLiving(t *testing.T) {
	c := loadDefaultCatalog(t)

	berlin, err := c.CostOfLiving("germany", "")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", berlin.Name)
	assert.Equal(t, 11208.0, berlin.VisaFundProof)
	assert.Equal(t, 5500.0, berlin.AvgSalaryTech)

	munich, err := c.CostOfLiving("Germany", "munich")
	require.NoError(t, err)
	assert.Equal(t, 1600.0, munich.RentCity)

	_, err = c.CostOfLiving("Germany", "Paris")
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrConfiguration))
}

func TestMonthlyExpensesBerlin(t *testing.T) {
	c := loadDefaultCatalog(t)

	e, err := c.MonthlyExpenses("Germany", "Berlin")
	require.NoError(t, err)
	assert.Equal(t, "EUR", e.Currency)
	assert.InDelta(t, 360.0, e.DiningOut, 1e-9)
	assert.InDelta(t, 105.0, e.Misc, 1e-9)
	assert.InDelta(t, 2386.0, e.Total, 1e-9)
}

func TestVisaRequirement(t *testing.T) {
	c := loadDefaultCatalog(t)

	visa, err := c.VisaRequirement("Germany")
	require.NoError(t, err)
	assert.Equal(t, 11208.0, visa.BlockedAccount)
	require.NotNil(t, visa.MonthlyWithdrawal)
	assert.Equal(t, 934.0, *visa.MonthlyWithdrawal)
	assert.Contains(t, visa.VisaTypes, "EU Blue Card")

	japan, err := c.VisaRequirement("Japan")
	require.NoError(t, err)
	assert.Nil(t, japan.MonthlyWithdrawal)
}

func TestCurrencyConversion(t *testing.T) {
	c := loadDefaultCatalog(t)

	eur, err := c.ConvertToEUR(108, "USD")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, eur, 1e-9)

	same, err := c.ConvertToEUR(2386, "eur")
	require.NoError(t, err)
	assert.InDelta(t, 2386.0, same, 1e-9)

	usd, err := c.ConvertToUSD(10000, "JPY")
	require.NoError(t, err)
	assert.InDelta(t, 67.0, usd, 1e-9)

	_, err = c.ConvertToEUR(1, "XYZ")
	assert.True(t, errors.Is(err, validation.ErrConfiguration))
}

func TestPPPAdjustedSalary(t *testing.T) {
	c := loadDefaultCatalog(t)
	adjusted, err := c.PPPAdjustedSalary(5000, "Portugal")
	require.NoError(t, err)
	assert.InDelta(t, 5000/0.58, adjusted, 1e-9)
}

func TestCompareCountries(t *testing.T) {
	c := loadDefaultCatalog(t)

	rows, err := c.CompareCountries([]string{"Germany", "Portugal", "United States"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Portugal", rows[0].Country)
	assert.InDelta(t, 1545.0, rows[0].MonthlyCostEUR, 1e-9)
	assert.Equal(t, "Germany", rows[1].Country)
	assert.InDelta(t, 1921.0, rows[1].MonthlyCostLocal, 1e-9)
	assert.Equal(t, "United States", rows[2].Country)

	_, err = c.CompareCountries([]string{"Germany", "Narnia"})
	assert.Error(t, err)
}

func TestLoadRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantKey string
	}{
		{
			name:    "no countries",
			doc:     "exchangeRatesToUsd:\n  EUR: 1.08\ncountries: []\n",
			wantKey: "countries",
		},
		{
			name: "missing rate",
			doc: `exchangeRatesToUsd:
  EUR: 1.08
countries:
  - name: Japan
    currency: JPY
    visa: {visaTypes: [Engineer], blockedAccount: 1}
    cities:
      - {name: Tokyo, rentCity: 1, rentOutside: 1, currency: JPY, pppIndex: 1}
`,
			wantKey: "countries[0].cities[0].currency",
		},
		{
			name: "negative rent",
			doc: `exchangeRatesToUsd:
  EUR: 1.08
countries:
  - name: Spain
    currency: EUR
    visa: {visaTypes: [Nomad]}
    cities:
      - {name: Madrid, rentCity: -1, rentOutside: 1, currency: EUR, pppIndex: 1}
`,
			wantKey: "countries[0].cities[0].rentCity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			var ce *validation.ConfigurationError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.wantKey, ce.Key)
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("exchangeRatesToUsd: {EUR: 1}\nplanets: []\n"))
	assert.Error(t, err)
}
