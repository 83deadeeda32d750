// Package catalog holds static relocation reference data: cost of living per
// city, visa requirements, macro indicators and exchange rates.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/iwvelando/relocation-forecast/pkg/validation"
	"gopkg.in/yaml.v3"
)

//go:embed data/countries.yaml
var embeddedData []byte

// Share of monthly groceries added as miscellaneous spending, and the number
// of mid-range meals out assumed per month.
const (
	miscGroceryShare = 0.3
	mealsOutPerMonth = 8
	baseCurrencyCode = "USD"
	eurCurrencyCode  = "EUR"
)

// City is the cost of living for one city in its local currency.
type City struct {
	Name          string  `json:"name" yaml:"name" validate:"notblank"`
	RentCity      float64 `json:"rentCity" yaml:"rentCity" validate:"finite,gt=0"`
	RentOutside   float64 `json:"rentOutside" yaml:"rentOutside" validate:"finite,gt=0"`
	Groceries     float64 `json:"groceries" yaml:"groceries" validate:"finite,gte=0"`
	Utilities     float64 `json:"utilities" yaml:"utilities" validate:"finite,gte=0"`
	Transport     float64 `json:"transport" yaml:"transport" validate:"finite,gte=0"`
	Internet      float64 `json:"internet" yaml:"internet" validate:"finite,gte=0"`
	MealCheap     float64 `json:"mealCheap" yaml:"mealCheap" validate:"finite,gte=0"`
	MealMid       float64 `json:"mealMid" yaml:"mealMid" validate:"finite,gte=0"`
	Coffee        float64 `json:"coffee" yaml:"coffee" validate:"finite,gte=0"`
	Currency      string  `json:"currency" yaml:"currency" validate:"len=3"`
	PPPIndex      float64 `json:"pppIndex" yaml:"pppIndex" validate:"finite,gt=0"`
	VisaFundProof float64 `json:"visaFundProof" yaml:"visaFundProof" validate:"finite,gte=0"`
	MinSalaryTech float64 `json:"minSalaryTech" yaml:"minSalaryTech" validate:"finite,gte=0"`
	AvgSalaryTech float64 `json:"avgSalaryTech" yaml:"avgSalaryTech" validate:"finite,gte=0"`
}

// VisaRequirement describes the work visa routes for a country.
type VisaRequirement struct {
	VisaTypes               []string `json:"visaTypes" yaml:"visaTypes" validate:"min=1"`
	BlockedAccount          float64  `json:"blockedAccount" yaml:"blockedAccount" validate:"finite,gte=0"`
	MonthlyWithdrawal       *float64 `json:"monthlyWithdrawal,omitempty" yaml:"monthlyWithdrawal,omitempty"`
	ProcessingTimeWeeks     int      `json:"processingTimeWeeks" yaml:"processingTimeWeeks" validate:"gte=0"`
	HealthInsuranceRequired bool     `json:"healthInsuranceRequired" yaml:"healthInsuranceRequired"`
	LanguageRequirement     string   `json:"languageRequirement" yaml:"languageRequirement"`
	WorkPermitIncluded      bool     `json:"workPermitIncluded" yaml:"workPermitIncluded"`
	ValidityMonths          int      `json:"validityMonths" yaml:"validityMonths" validate:"gte=0"`
	RenewalPossible         bool     `json:"renewalPossible" yaml:"renewalPossible"`
}

// Indicators are headline macroeconomic figures for a country.
type Indicators struct {
	CountryCode      string  `json:"countryCode" yaml:"countryCode"`
	Region           string  `json:"region" yaml:"region"`
	IncomeLevel      string  `json:"incomeLevel" yaml:"incomeLevel"`
	GDPPerCapita     float64 `json:"gdpPerCapita" yaml:"gdpPerCapita" validate:"finite"`
	InflationRate    float64 `json:"inflationRate" yaml:"inflationRate" validate:"finite"`
	UnemploymentRate float64 `json:"unemploymentRate" yaml:"unemploymentRate" validate:"finite"`
}

// Country groups the cities and visa data of one destination. Cities keep
// their file order; the first one is the default.
type Country struct {
	Name       string          `json:"name" yaml:"name" validate:"notblank"`
	Currency   string          `json:"currency" yaml:"currency" validate:"len=3"`
	Indicators Indicators      `json:"indicators" yaml:"indicators"`
	Visa       VisaRequirement `json:"visa" yaml:"visa"`
	Cities     []City          `json:"cities" yaml:"cities" validate:"min=1,dive"`
}

// MonthlyExpenses is a typical monthly budget for a city.
type MonthlyExpenses struct {
	Country   string  `json:"country" yaml:"country"`
	City      string  `json:"city" yaml:"city"`
	Rent      float64 `json:"rent" yaml:"rent"`
	Groceries float64 `json:"groceries" yaml:"groceries"`
	Utilities float64 `json:"utilities" yaml:"utilities"`
	Transport float64 `json:"transport" yaml:"transport"`
	Internet  float64 `json:"internet" yaml:"internet"`
	DiningOut float64 `json:"diningOut" yaml:"diningOut"`
	Misc      float64 `json:"misc" yaml:"misc"`
	Total     float64 `json:"total" yaml:"total"`
	Currency  string  `json:"currency" yaml:"currency"`
}

// CountryCost is one row of CompareCountries, using the country's first city.
type CountryCost struct {
	Country          string  `json:"country" yaml:"country"`
	City             string  `json:"city" yaml:"city"`
	Currency         string  `json:"currency" yaml:"currency"`
	MonthlyCostLocal float64 `json:"monthlyCostLocal" yaml:"monthlyCostLocal"`
	MonthlyCostEUR   float64 `json:"monthlyCostEur" yaml:"monthlyCostEur"`
	PPPIndex         float64 `json:"pppIndex" yaml:"pppIndex"`
	AvgTechSalary    float64 `json:"avgTechSalary" yaml:"avgTechSalary"`
}

type document struct {
	ExchangeRatesToUSD map[string]float64 `yaml:"exchangeRatesToUsd"`
	Countries          []Country          `yaml:"countries"`
}

// Catalog is an immutable, indexed view of the reference data. It is safe
// for concurrent use.
type Catalog struct {
	countries []Country
	byName    map[string]int
	rates     map[string]float64
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded data file.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(bytes.NewReader(embeddedData))
	})
	return defaultCatalog, defaultErr
}

// Load parses and validates a catalog document.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	if len(doc.Countries) == 0 {
		return nil, validation.NewConfigurationError("countries", "catalog contains no countries")
	}

	rates := make(map[string]float64, len(doc.ExchangeRatesToUSD))
	for code, rate := range doc.ExchangeRatesToUSD {
		if rate <= 0 {
			return nil, validation.NewConfigurationError("exchangeRatesToUsd."+code, "rate must be positive, got %g", rate)
		}
		rates[strings.ToUpper(code)] = rate
	}
	if _, ok := rates[eurCurrencyCode]; !ok {
		return nil, validation.NewConfigurationError("exchangeRatesToUsd", "missing %s rate", eurCurrencyCode)
	}

	c := &Catalog{
		countries: doc.Countries,
		byName:    make(map[string]int, len(doc.Countries)),
		rates:     rates,
	}
	for i, country := range doc.Countries {
		if err := validation.Struct(fmt.Sprintf("countries[%d]", i), country); err != nil {
			return nil, asConfigurationError(err)
		}
		key := normalize(country.Name)
		if _, dup := c.byName[key]; dup {
			return nil, validation.NewConfigurationError(fmt.Sprintf("countries[%d].name", i), "duplicate country %q", country.Name)
		}
		c.byName[key] = i
		for j, city := range country.Cities {
			if _, ok := rates[strings.ToUpper(city.Currency)]; !ok {
				return nil, validation.NewConfigurationError(
					fmt.Sprintf("countries[%d].cities[%d].currency", i, j), "no exchange rate for %q", city.Currency)
			}
		}
	}
	return c, nil
}

func asConfigurationError(err error) error {
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		return &validation.ConfigurationError{Key: ve.Field, Message: ve.Message}
	}
	return err
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Countries lists country names in file order.
func (c *Catalog) Countries() []string {
	names := make([]string, len(c.countries))
	for i, country := range c.countries {
		names[i] = country.Name
	}
	return names
}

// Country returns one country by name (case-insensitive).
func (c *Catalog) Country(name string) (Country, error) {
	i, ok := c.byName[normalize(name)]
	if !ok {
		return Country{}, validation.NewConfigurationError("country", "unknown country %q", name)
	}
	return c.countries[i], nil
}

// Cities lists the city names of a country, default city first.
func (c *Catalog) Cities(country string) ([]string, error) {
	ct, err := c.Country(country)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ct.Cities))
	for i, city := range ct.Cities {
		names[i] = city.Name
	}
	return names, nil
}

// CostOfLiving returns city data. An empty city selects the country's first
// city; an unknown city is an error.
func (c *Catalog) CostOfLiving(country, city string) (City, error) {
	ct, err := c.Country(country)
	if err != nil {
		return City{}, err
	}
	if strings.TrimSpace(city) == "" {
		return ct.Cities[0], nil
	}
	for _, candidate := range ct.Cities {
		if normalize(candidate.Name) == normalize(city) {
			return candidate, nil
		}
	}
	return City{}, validation.NewConfigurationError("city", "unknown city %q in %s", city, ct.Name)
}

// VisaRequirement returns the visa data for a country.
func (c *Catalog) VisaRequirement(country string) (VisaRequirement, error) {
	ct, err := c.Country(country)
	if err != nil {
		return VisaRequirement{}, err
	}
	return ct.Visa, nil
}

// MonthlyExpenses builds a typical monthly budget: rent, groceries,
// utilities, transport, internet, eight mid-range meals out and a
// miscellaneous allowance of 30% of groceries.
func (c *Catalog) MonthlyExpenses(country, city string) (MonthlyExpenses, error) {
	col, err := c.CostOfLiving(country, city)
	if err != nil {
		return MonthlyExpenses{}, err
	}
	ct, _ := c.Country(country)

	e := MonthlyExpenses{
		Country:   ct.Name,
		City:      col.Name,
		Rent:      col.RentCity,
		Groceries: col.Groceries,
		Utilities: col.Utilities,
		Transport: col.Transport,
		Internet:  col.Internet,
		DiningOut: col.MealMid * mealsOutPerMonth,
		Misc:      col.Groceries * miscGroceryShare,
		Currency:  col.Currency,
	}
	e.Total = e.Rent + e.Groceries + e.Utilities + e.Transport + e.Internet + e.DiningOut + e.Misc
	return e, nil
}

// ConvertToUSD converts an amount in the given currency to US dollars.
func (c *Catalog) ConvertToUSD(amount float64, currency string) (float64, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = baseCurrencyCode
	}
	rate, ok := c.rates[code]
	if !ok {
		return 0, validation.NewConfigurationError("currency", "no exchange rate for %q", currency)
	}
	return amount * rate, nil
}

// ConvertToEUR converts an amount in the given currency to euros via USD.
func (c *Catalog) ConvertToEUR(amount float64, currency string) (float64, error) {
	usd, err := c.ConvertToUSD(amount, currency)
	if err != nil {
		return 0, err
	}
	return usd / c.rates[eurCurrencyCode], nil
}

// PPPAdjustedSalary scales a euro salary by the purchasing power index of
// the country's default city.
func (c *Catalog) PPPAdjustedSalary(salaryEUR float64, country string) (float64, error) {
	col, err := c.CostOfLiving(country, "")
	if err != nil {
		return 0, err
	}
	return salaryEUR / col.PPPIndex, nil
}

// CompareCountries ranks countries by the fixed monthly cost of their default
// city (rent, groceries, utilities, transport, internet) in euros, cheapest
// first.
func (c *Catalog) CompareCountries(countries []string) ([]CountryCost, error) {
	rows := make([]CountryCost, 0, len(countries))
	for _, name := range countries {
		ct, err := c.Country(name)
		if err != nil {
			return nil, err
		}
		col := ct.Cities[0]
		local := col.RentCity + col.Groceries + col.Utilities + col.Transport + col.Internet
		eur, err := c.ConvertToEUR(local, col.Currency)
		if err != nil {
			return nil, err
		}
		rows = append(rows, CountryCost{
			Country:          ct.Name,
			City:             col.Name,
			Currency:         col.Currency,
			MonthlyCostLocal: local,
			MonthlyCostEUR:   eur,
			PPPIndex:         col.PPPIndex,
			AvgTechSalary:    col.AvgSalaryTech,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].MonthlyCostEUR < rows[j].MonthlyCostEUR })
	return rows, nil
}
