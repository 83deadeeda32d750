package vtc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iwvelando/relocation-forecast/pkg/validation"
)

// Built-in profile names.
const (
	ProfileStandard     = "standard"
	ProfileConservative = "conservative"
	ProfileFlexible     = "flexible"
)

// Profile is a named set of spending limits. Profiles are treated as
// immutable once loaded.
type Profile struct {
	Name                        string  `json:"name" yaml:"name" mapstructure:"name"`
	Description                 string  `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	DailyLimit                  float64 `json:"dailyLimit" yaml:"dailyLimit" mapstructure:"dailyLimit" validate:"finite,gt=0"`
	MaxSingleTransaction        float64 `json:"maxSingleTransaction" yaml:"maxSingleTransaction" mapstructure:"maxSingleTransaction" validate:"finite,gt=0"`
	MaxInternationalTransaction float64 `json:"maxInternationalTransaction" yaml:"maxInternationalTransaction" mapstructure:"maxInternationalTransaction" validate:"finite,gt=0"`
	MaxATMWithdrawal            float64 `json:"maxAtmWithdrawal" yaml:"maxAtmWithdrawal" mapstructure:"maxAtmWithdrawal" validate:"finite,gt=0"`
	AllowATM                    bool    `json:"allowAtm" yaml:"allowAtm" mapstructure:"allowAtm"`
	BlockHighRiskMerchants      bool    `json:"blockHighRiskMerchants" yaml:"blockHighRiskMerchants" mapstructure:"blockHighRiskMerchants"`
}

// Validate checks that all limits are positive and that a single
// transaction can never exceed the daily limit.
func (p Profile) Validate() error {
	if err := validation.Struct("profiles."+p.Name, p); err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			return validation.NewConfigurationError(ve.Field, "%s", ve.Message)
		}
		return validation.NewConfigurationError("profiles."+p.Name, "%v", err)
	}
	if p.MaxSingleTransaction > p.DailyLimit {
		return validation.NewConfigurationError("profiles."+p.Name,
			"maxSingleTransaction %.2f exceeds dailyLimit %.2f", p.MaxSingleTransaction, p.DailyLimit)
	}
	return nil
}

// DefaultProfiles returns the built-in profiles keyed by name.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		ProfileStandard: {
			Name:                        ProfileStandard,
			Description:                 "Standard spending controls for everyday transactions",
			DailyLimit:                  2500,
			MaxSingleTransaction:        1000,
			MaxInternationalTransaction: 500,
			MaxATMWithdrawal:            500,
			AllowATM:                    true,
			BlockHighRiskMerchants:      true,
		},
		ProfileConservative: {
			Name:                        ProfileConservative,
			Description:                 "Strict controls for budget-conscious travelers",
			DailyLimit:                  1000,
			MaxSingleTransaction:        500,
			MaxInternationalTransaction: 200,
			MaxATMWithdrawal:            200,
			AllowATM:                    true,
			BlockHighRiskMerchants:      true,
		},
		ProfileFlexible: {
			Name:                        ProfileFlexible,
			Description:                 "Relaxed controls for established expats",
			DailyLimit:                  5000,
			MaxSingleTransaction:        3000,
			MaxInternationalTransaction: 2000,
			MaxATMWithdrawal:            1000,
			AllowATM:                    true,
			BlockHighRiskMerchants:      false,
		},
	}
}

// Profiles is a validated, name-indexed set of rule profiles.
type Profiles struct {
	byName map[string]Profile
}

// NewProfiles validates every profile and indexes it by name. The map key
// wins over an empty Profile.Name.
func NewProfiles(profiles map[string]Profile) (*Profiles, error) {
	if len(profiles) == 0 {
		return nil, validation.NewConfigurationError("profiles", "at least one rule profile is required")
	}
	byName := make(map[string]Profile, len(profiles))
	for name, p := range profiles {
		if p.Name == "" {
			p.Name = name
		}
		if p.Name != name {
			return nil, validation.NewConfigurationError("profiles."+name,
				"profile name %q does not match its key", p.Name)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		byName[name] = p
	}
	return &Profiles{byName: byName}, nil
}

// Lookup resolves a profile by name. Unknown names are a configuration error;
// there is no fallback profile.
func (ps *Profiles) Lookup(name string) (Profile, error) {
	p, ok := ps.byName[name]
	if !ok {
		return Profile{}, validation.NewConfigurationError("profile",
			"unknown rule profile %q (available: %v)", name, ps.Names())
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (ps *Profiles) Names() []string {
	names := make([]string, 0, len(ps.byName))
	for name := range ps.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every profile sorted by name.
func (ps *Profiles) All() []Profile {
	names := ps.Names()
	out := make([]Profile, 0, len(names))
	for _, name := range names {
		out = append(out, ps.byName[name])
	}
	return out
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (daily %.2f, single %.2f, international %.2f, atm %.2f)",
		p.Name, p.DailyLimit, p.MaxSingleTransaction, p.MaxInternationalTransaction, p.MaxATMWithdrawal)
}
