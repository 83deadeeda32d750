// Package constants provides shared constants for the relocation-forecast application.
package constants

import "time"

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DefaultCurrencySymbol is used when no currency code is known
	DefaultCurrencySymbol = "€"
)

// Projection defaults
const (
	// DefaultProjectionMonths is the savings horizon used when none is configured
	DefaultProjectionMonths = 12

	// DefaultTargetFundMonths is the horizon by which the visa fund must be met
	DefaultTargetFundMonths = 12

	// DefaultTopN is the number of ranked paths returned by a projection
	DefaultTopN = 3

	// DefaultMaxScenarios caps the lever combinations one API request may enumerate
	DefaultMaxScenarios = 100000

	// DefaultRuleProfile is the rule profile used by the CLI when none is given
	DefaultRuleProfile = "standard"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides (RELOCATION_LOGGING_LEVEL, ...)
	EnvPrefix = "RELOCATION"
)

// Server configuration defaults
const (
	// DefaultReadHeaderTimeout bounds how long a client may take to send headers
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of the API server
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
