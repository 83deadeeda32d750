// Package validation provides common validation utilities and the error
// types used to report invalid input.
package validation

import (
	"slices"
	"strings"

	"github.com/iwvelando/relocation-forecast/pkg/constants"
)

// OutputFormats lists the supported output formats.
var OutputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
	constants.OutputFormatYAML,
}

// ValidateOutputFormat checks that format is one of OutputFormats. Matching
// is case-sensitive.
func ValidateOutputFormat(format string) error {
	if slices.Contains(OutputFormats, format) {
		return nil
	}
	return NewValidationError("outputFormat", "expected one of %s, got %q", strings.Join(OutputFormats, ", "), format)
}
