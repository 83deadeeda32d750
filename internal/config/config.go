// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/iwvelando/relocation-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for relocation-forecast.
type Configuration struct {
	Logging    LoggingConfig          `yaml:"logging,omitempty" mapstructure:"logging"`
	Output     OutputConfig           `yaml:"output,omitempty" mapstructure:"output"`
	Profiles   map[string]vtc.Profile `yaml:"profiles,omitempty" mapstructure:"profiles"`
	Levers     projector.LeverSet     `yaml:"levers,omitempty" mapstructure:"levers"`
	Projection ProjectionConfig       `yaml:"projection,omitempty" mapstructure:"projection"`
	Report     ReportConfig           `yaml:"report,omitempty" mapstructure:"report"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, yaml
}

// ProjectionConfig holds the defaults for scenario projection.
type ProjectionConfig struct {
	Months           int `yaml:"months,omitempty" mapstructure:"months" json:"months" validate:"gt=0"`
	TargetFundMonths int `yaml:"targetFundMonths,omitempty" mapstructure:"targetFundMonths" json:"targetFundMonths" validate:"gt=0"`
	TopN             int `yaml:"topN,omitempty" mapstructure:"topN" json:"topN" validate:"gt=0"`
	// SampleDraws switches projection to random sampling when positive.
	SampleDraws int    `yaml:"sampleDraws,omitempty" mapstructure:"sampleDraws" json:"sampleDraws" validate:"gte=0"`
	Seed        uint64 `yaml:"seed,omitempty" mapstructure:"seed" json:"seed"`
	// MaxScenarios bounds the lever cross product and sample draws accepted over HTTP.
	MaxScenarios int `yaml:"maxScenarios,omitempty" mapstructure:"maxScenarios" json:"maxScenarios" validate:"gt=0"`
}

// ReportConfig selects the destination and rule profile for reports.
type ReportConfig struct {
	Country string `yaml:"country,omitempty" mapstructure:"country"`
	City    string `yaml:"city,omitempty" mapstructure:"city"`
	Profile string `yaml:"profile,omitempty" mapstructure:"profile"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path loads only the built-in defaults and
// environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key individually so partial profile overrides
// in a file merge with the built-in values and env overrides resolve.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)

	for name, p := range vtc.DefaultProfiles() {
		prefix := "profiles." + name + "."
		v.SetDefault(prefix+"name", p.Name)
		v.SetDefault(prefix+"description", p.Description)
		v.SetDefault(prefix+"dailyLimit", p.DailyLimit)
		v.SetDefault(prefix+"maxSingleTransaction", p.MaxSingleTransaction)
		v.SetDefault(prefix+"maxInternationalTransaction", p.MaxInternationalTransaction)
		v.SetDefault(prefix+"maxAtmWithdrawal", p.MaxATMWithdrawal)
		v.SetDefault(prefix+"allowAtm", p.AllowATM)
		v.SetDefault(prefix+"blockHighRiskMerchants", p.BlockHighRiskMerchants)
	}

	levers := projector.DefaultLevers()
	v.SetDefault("levers.upskillBoost", levers.UpskillBoost)
	v.SetDefault("levers.expenseReduction", levers.ExpenseReduction)
	v.SetDefault("levers.sideIncome", levers.SideIncome)

	v.SetDefault("projection.months", constants.DefaultProjectionMonths)
	v.SetDefault("projection.targetFundMonths", constants.DefaultTargetFundMonths)
	v.SetDefault("projection.topN", constants.DefaultTopN)
	v.SetDefault("projection.sampleDraws", 0)
	v.SetDefault("projection.seed", 0)
	v.SetDefault("projection.maxScenarios", constants.DefaultMaxScenarios)

	v.SetDefault("report.country", "Germany")
	v.SetDefault("report.city", "")
	v.SetDefault("report.profile", constants.DefaultRuleProfile)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate checks the loaded configuration. Every failure is a
// *validation.ConfigurationError.
func (conf *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			return validation.NewConfigurationError("output.format", "%s", ve.Message)
		}
		return err
	}
	if _, err := conf.RuleProfiles(); err != nil {
		return err
	}
	if err := conf.Levers.Validate(); err != nil {
		return toConfigurationError(err)
	}
	if err := validation.Struct("projection", conf.Projection); err != nil {
		return toConfigurationError(err)
	}
	if conf.Projection.SampleDraws > projector.MaxSampleDraws {
		return validation.NewConfigurationError("projection.sampleDraws", "must be at most %d", projector.MaxSampleDraws)
	}
	return nil
}

// RuleProfiles builds the validated profile set.
func (conf *Configuration) RuleProfiles() (*vtc.Profiles, error) {
	return vtc.NewProfiles(conf.Profiles)
}

func toConfigurationError(err error) error {
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		return validation.NewConfigurationError(ve.Field, "%s", ve.Message)
	}
	return err
}
