package validation

import (
	"encoding/json"

	apperrors "valuation-workers/internal/common/errors"
)

// DecodeVariables validates job variables against schema, unmarshals them
// into out and runs out's struct tags. Failures come back as INVALID_INPUT
// or PARSE_ERROR StandardErrors carrying the field errors as metadata.
func DecodeVariables(schema map[string]interface{}, variables string, out interface{}) error {
	if variables == "" {
		variables = "{}"
	}

	res, err := ValidateJSON(schema, variables)
	if err != nil {
		return apperrors.NewParseError(err)
	}
	if !res.Valid {
		return apperrors.NewInvalidInputError(res.Summary()).WithMetadata("validationErrors", res.Errors)
	}

	if err := json.Unmarshal([]byte(variables), out); err != nil {
		return apperrors.NewParseError(err)
	}

	if res := ValidateStruct(out); !res.Valid {
		return apperrors.NewInvalidInputError(res.Summary()).WithMetadata("validationErrors", res.Errors)
	}
	return nil
}
