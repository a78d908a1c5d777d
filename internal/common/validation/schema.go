package validation

import (
	"fmt"
	"strings"

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

// Error joins the individual failures.
func (r *ValidationResult) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// ApplyEventSchema constrains bodies accepted by the publish function.
// Optional attribution fields may be absent; when present they must have
// the right type.
var ApplyEventSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"tenant", "name", "email", "files"},
	"properties": map[string]interface{}{
		"tenant":   map[string]interface{}{"type": "string", "minLength": 1},
		"language": map[string]interface{}{"type": "string"},
		"name":     map[string]interface{}{"type": "string", "minLength": 1},
		"email":    map[string]interface{}{"type": "string", "minLength": 3},
		"phone":    map[string]interface{}{"type": "string"},
		"files": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"fileUrl"},
				"properties": map[string]interface{}{
					"fileUrl":          map[string]interface{}{"type": "string", "minLength": 1},
					"originalFilename": map[string]interface{}{"type": "string"},
				},
			},
		},
		"consentCurrent": map[string]interface{}{"type": "boolean"},
		"consentFuture":  map[string]interface{}{"type": "boolean"},
		"sourceUrl":      map[string]interface{}{"type": "string"},
		"referrer":       map[string]interface{}{"type": "string"},
		"landingUrl":     map[string]interface{}{"type": "string"},
		"urlParams": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": map[string]interface{}{"type": "string"},
		},
		"sourceJobId":   map[string]interface{}{"type": "string"},
		"referenceId":   map[string]interface{}{"type": "string"},
		"redirectCount": map[string]interface{}{"type": "integer", "minimum": 0},
	},
}

// ValidateDocument validates raw JSON against schema.
func ValidateDocument(schema map[string]interface{}, document []byte) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}
