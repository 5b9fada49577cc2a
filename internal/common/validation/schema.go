// Package validation checks job variables before a worker decodes them: the
// raw JSON against the activity's input schema, then the decoded struct
// against its `validate` tags.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into a single line for BPMN error details.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateJSON checks document against schema. An empty schema accepts anything.
// The error return is reserved for a malformed schema or document.
func ValidateJSON(schema map[string]interface{}, document string) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   schemaField(desc),
			Message: desc.Description(),
			Code:    schemaCode(desc.Type()),
		})
	}
	return out, nil
}

// ValidateStruct runs the `validate` tags on v. Field names follow the json tags.
func ValidateStruct(v interface{}) *ValidationResult {
	err := structValidator.Struct(v)
	if err == nil {
		return &ValidationResult{Valid: true}
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationResult{
			Errors: []ValidationError{{Field: "", Message: err.Error(), Code: "INVALID_INPUT"}},
		}
	}

	out := &ValidationResult{}
	for _, fe := range validationErrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   structField(fe.Namespace()),
			Message: tagMessage(fe),
			Code:    tagCode(fe.Tag()),
		})
	}
	return out
}

func schemaField(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if field == "(root)" {
				return prop
			}
			return field + "." + prop
		}
	}
	return field
}

func schemaCode(kind string) string {
	switch kind {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "enum":
		return "INVALID_ENUM_VALUE"
	case "number_gte", "number_gt":
		return "MINIMUM_VIOLATION"
	case "number_lte", "number_lt":
		return "MAXIMUM_VIOLATION"
	case "string_gte":
		return "MIN_LENGTH_VIOLATION"
	case "string_lte":
		return "MAX_LENGTH_VIOLATION"
	case "pattern":
		return "PATTERN_MISMATCH"
	case "array_min_items":
		return "MIN_ITEMS_VIOLATION"
	case "additional_property_not_allowed":
		return "EXTRA_FIELD"
	default:
		return "SCHEMA_VIOLATION"
	}
}

// structField drops the root type name from a validator namespace.
func structField(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func tagCode(tag string) string {
	switch tag {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "min", "gte", "gt":
		return "MINIMUM_VIOLATION"
	case "max", "lte", "lt":
		return "MAXIMUM_VIOLATION"
	case "oneof":
		return "INVALID_ENUM_VALUE"
	default:
		return "INVALID_VALUE"
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field missing"
	case "min", "gte":
		return fmt.Sprintf("value must be >= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("value must be > %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("value must be <= %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
