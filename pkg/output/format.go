// Package output provides utilities for formatting and displaying classifier,
// projection and report results.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iwvelando/relocation-forecast/internal/catalog"
	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/report"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Classification bundles a classifier run for display.
type Classification struct {
	Profile         vtc.Profile  `json:"profile" yaml:"profile"`
	Results         []vtc.Result `json:"results" yaml:"results"`
	Summary         vtc.Summary  `json:"summary" yaml:"summary"`
	Recommendations []string     `json:"recommendations" yaml:"recommendations"`
}

// Render writes v to w in the requested format. v must be one of
// Classification, projector.Result, projector.SampleResult, report.Report,
// []vtc.Profile or []catalog.CountryCost.
func Render(w io.Writer, format string, v interface{}) error {
	switch format {
	case constants.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case constants.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case constants.OutputFormatPretty:
		return renderPretty(w, v)
	case constants.OutputFormatCSV:
		return renderCSV(w, v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderPretty(w io.Writer, v interface{}) error {
	switch t := v.(type) {
	case Classification:
		return PrettyClassification(w, t)
	case projector.Result:
		return PrettyProjection(w, t)
	case projector.SampleResult:
		return PrettySample(w, t)
	case report.Report:
		return PrettyReport(w, t)
	case []vtc.Profile:
		return PrettyProfiles(w, t)
	case []catalog.CountryCost:
		return PrettyCountries(w, t)
	default:
		return fmt.Errorf("no pretty renderer for %T", v)
	}
}

func renderCSV(w io.Writer, v interface{}) error {
	switch t := v.(type) {
	case Classification:
		return CsvClassification(w, t.Results)
	case projector.Result:
		return CsvOutcomes(w, t.Outcomes)
	case projector.SampleResult:
		return CsvOutcomes(w, t.Outcomes)
	case report.Report:
		return CsvOutcomes(w, t.Projection.Outcomes)
	case []vtc.Profile:
		return CsvProfiles(w, t)
	case []catalog.CountryCost:
		return CsvCountries(w, t)
	default:
		return fmt.Errorf("no csv renderer for %T", v)
	}
}
