// Package schemas validates JSON documents against JSON Schema.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
// For "required" errors Field names the missing property itself.
type FieldError struct {
	Field   string // dotted path, "(root)" for the whole document
	Type    string // gojsonschema error type, e.g. "required", "invalid_type"
	Message string
}

// TopLevel returns the first segment of the field path.
func (fe FieldError) TopLevel() string {
	field, _, _ := strings.Cut(fe.Field, ".")
	return field
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validator is a compiled schema, safe for concurrent use.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a schema document. schema may be a JSON string or
// any Go value that marshals to one (e.g. map[string]any).
func NewValidator(schema any) (*Validator, error) {
	var loader gojsonschema.JSONLoader
	if s, ok := schema.(string); ok {
		loader = gojsonschema.NewStringLoader(s)
	} else {
		loader = gojsonschema.NewGoLoader(schema)
	}

	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, &SchemaLoadError{Path: "(inline schema)", Message: "invalid schema", Cause: err}
	}
	return &Validator{schema: compiled}, nil
}

// ValidateString validates a JSON document. It returns nil, a
// *ValidationError listing every violation, or an error if the document is
// not JSON at all.
func (v *Validator) ValidateString(jsonContent string) error {
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	return toValidationError(result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	v, err := NewValidator(schemaContent)
	if err != nil {
		return err
	}
	return v.ValidateString(jsonContent)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   fieldPath(desc),
			Type:    desc.Type(),
			Message: desc.Description(),
		})
	}
	return validationErr
}

func fieldPath(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if field == "" {
		field = "(root)"
	}
	if desc.Type() != "required" {
		return field
	}
	property, _ := desc.Details()["property"].(string)
	if property == "" {
		return field
	}
	if field == "(root)" {
		return property
	}
	return field + "." + property
}
