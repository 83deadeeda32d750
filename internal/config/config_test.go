package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/relocation-forecast/internal/vtc"
	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/iwvelando/relocation-forecast/pkg/validation"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfigurationDefaults(t *testing.T) {
	conf, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Output.Format != constants.OutputFormatPretty {
		t.Errorf("expected pretty output, got %s", conf.Output.Format)
	}
	if conf.Logging.Level != "info" {
		t.Errorf("expected info log level, got %s", conf.Logging.Level)
	}
	if conf.Projection.Months != constants.DefaultProjectionMonths {
		t.Errorf("expected %d months, got %d", constants.DefaultProjectionMonths, conf.Projection.Months)
	}
	if conf.Projection.MaxScenarios != constants.DefaultMaxScenarios {
		t.Errorf("expected scenario limit %d, got %d", constants.DefaultMaxScenarios, conf.Projection.MaxScenarios)
	}
	if conf.Levers.Size() != 27 {
		t.Errorf("expected 27 lever combinations, got %d", conf.Levers.Size())
	}
	if conf.Report.Profile != constants.DefaultRuleProfile {
		t.Errorf("expected default profile, got %s", conf.Report.Profile)
	}

	profiles, err := conf.RuleProfiles()
	if err != nil {
		t.Fatalf("RuleProfiles() error = %v", err)
	}
	names := profiles.Names()
	want := []string{vtc.ProfileConservative, vtc.ProfileFlexible, vtc.ProfileStandard}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("expected profiles %v, got %v", want, names)
	}
}

func TestLoadConfigurationMergesProfiles(t *testing.T) {
	path := writeConfig(t, `
output:
  format: json
profiles:
  standard:
    dailyLimit: 3000
  weekend:
    description: Short trips
    dailyLimit: 800
    maxSingleTransaction: 400
    maxInternationalTransaction: 300
    maxAtmWithdrawal: 100
    allowAtm: false
    blockHighRiskMerchants: true
levers:
  sideIncome: [0, 300]
projection:
  months: 24
report:
  country: Portugal
  city: Porto
`)

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	profiles, err := conf.RuleProfiles()
	if err != nil {
		t.Fatalf("RuleProfiles() error = %v", err)
	}

	standard, err := profiles.Lookup(vtc.ProfileStandard)
	if err != nil {
		t.Fatalf("Lookup(standard) error = %v", err)
	}
	if standard.DailyLimit != 3000 {
		t.Errorf("expected overridden daily limit 3000, got %v", standard.DailyLimit)
	}
	if standard.MaxSingleTransaction != 1000 {
		t.Errorf("expected built-in single limit 1000, got %v", standard.MaxSingleTransaction)
	}
	if !standard.AllowATM {
		t.Errorf("expected built-in allowAtm to survive a partial override")
	}

	weekend, err := profiles.Lookup("weekend")
	if err != nil {
		t.Fatalf("Lookup(weekend) error = %v", err)
	}
	if weekend.AllowATM || weekend.MaxATMWithdrawal != 100 {
		t.Errorf("unexpected weekend profile %+v", weekend)
	}

	if len(conf.Levers.SideIncome) != 2 || conf.Levers.SideIncome[1] != 300 {
		t.Errorf("expected side income override, got %v", conf.Levers.SideIncome)
	}
	if len(conf.Levers.UpskillBoost) != 3 {
		t.Errorf("expected default upskill levers, got %v", conf.Levers.UpskillBoost)
	}
	if conf.Projection.Months != 24 || conf.Projection.TopN != constants.DefaultTopN {
		t.Errorf("unexpected projection config %+v", conf.Projection)
	}
	if conf.Output.Format != constants.OutputFormatJSON {
		t.Errorf("expected json output, got %s", conf.Output.Format)
	}
	if conf.Report.Country != "Portugal" || conf.Report.City != "Porto" {
		t.Errorf("unexpected report config %+v", conf.Report)
	}
}

func TestLoadConfigurationEnvironmentOverride(t *testing.T) {
	t.Setenv("RELOCATION_PROJECTION_MONTHS", "36")
	t.Setenv("RELOCATION_OUTPUT_FORMAT", "yaml")
	t.Setenv("RELOCATION_PROJECTION_MAXSCENARIOS", "500")

	conf, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Projection.Months != 36 {
		t.Errorf("expected env override of months, got %d", conf.Projection.Months)
	}
	if conf.Projection.MaxScenarios != 500 {
		t.Errorf("expected env override of scenario limit, got %d", conf.Projection.MaxScenarios)
	}
	if conf.Output.Format != constants.OutputFormatYAML {
		t.Errorf("expected env override of output format, got %s", conf.Output.Format)
	}
}

func TestLoadConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantKey string
	}{
		{
			name: "single above daily",
			config: `profiles:
  standard:
    maxSingleTransaction: 5000
`,
			wantKey: "profiles.standard",
		},
		{
			name: "non-positive limit",
			config: `profiles:
  conservative:
    maxAtmWithdrawal: 0
`,
			wantKey: "profiles.conservative.maxAtmWithdrawal",
		},
		{
			name: "lever without neutral value",
			config: `levers:
  expenseReduction: [0.1, 0.2]
`,
			wantKey: "levers.expenseReduction",
		},
		{
			name: "negative side income",
			config: `levers:
  sideIncome: [0, -100]
`,
			wantKey: "levers.sideIncome[1]",
		},
		{
			name: "zero months",
			config: `projection:
  months: 0
`,
			wantKey: "projection.months",
		},
		{
			name: "bad output format",
			config: `output:
  format: xml
`,
			wantKey: "output.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigurationFromReader(strings.NewReader(tt.config))
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !errors.Is(err, validation.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var ce *validation.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigurationError, got %T", err)
			}
			if ce.Key != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, ce.Key)
			}
		})
	}
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "nonexistent.yaml")); err == nil {
		t.Error("LoadConfiguration() expected error but got none")
	}
}
