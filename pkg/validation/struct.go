package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/relocation-forecast/pkg/mathutil"
)

// structValidate is the shared validator instance. Field names in errors use
// the json tag so they match what API callers sent.
var structValidate *validator.Validate

func init() {
	structValidate = validator.New(validator.WithRequiredStructEnabled())
	structValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = structValidate.RegisterValidation("finite", validateFinite)
	_ = structValidate.RegisterValidation("notblank", validateNotBlank)
}

func validateFinite(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		return mathutil.IsFinite(fl.Field().Float())
	default:
		return true
	}
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct validates v against its `validate` tags. The first failing field is
// returned as a *ValidationError whose Field is prefixed with prefix
// (e.g. "transactions[3]").
func Struct(prefix string, v interface{}) error {
	err := structValidate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: prefix, Message: err.Error()}
	}

	fe := fieldErrs[0]
	return &ValidationError{
		Field:   joinField(prefix, fe.Namespace()),
		Message: describe(fe),
	}
}

// joinField drops the top-level struct name from a validator namespace and
// prepends prefix.
func joinField(prefix, namespace string) string {
	field := namespace
	if idx := strings.Index(namespace, "."); idx >= 0 {
		field = namespace[idx+1:]
	}
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "finite":
		return "must be a finite number"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
