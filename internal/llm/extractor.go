// Package llm - extractor.go provides schema-driven structured extraction prompts.
package llm

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// FieldType is the value shape of a schema field.
type FieldType string

// Field types understood by the prompt and JSON-Schema renderers.
const (
	FieldString         FieldType = "string"
	FieldOptionalString FieldType = "optional_string"
	FieldInteger        FieldType = "integer"
	FieldNumber         FieldType = "number"
	FieldStringArray    FieldType = "string_array"
	FieldObjectArray    FieldType = "object_array"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// The same value renders both the prompt and the JSON Schema used to check
// the reply, so the two cannot drift apart.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "CandidateProfile")
	System      string        // System instruction sent alongside the prompt
	Description string        // Prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields, in output order
	Rules       []string      // Inference rules the model must follow
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string        // JSON field name
	Type        FieldType     // Value shape
	Description string        // Description for the LLM
	Required    bool          // Whether a non-empty value is mandatory
	Enum        []string      // Allowed values for string fields
	MaxItems    int           // Upper bound for array fields; 0 means unbounded
	Fields      []SchemaField // Item fields for FieldObjectArray
}

// Clone returns a deep copy of the schema.
func (s ExtractionSchema) Clone() ExtractionSchema {
	s.Fields = cloneFields(s.Fields)
	s.Rules = slices.Clone(s.Rules)
	return s
}

func cloneFields(fields []SchemaField) []SchemaField {
	if fields == nil {
		return nil
	}
	out := make([]SchemaField, len(fields))
	for i, f := range fields {
		f.Enum = slices.Clone(f.Enum)
		f.Fields = cloneFields(f.Fields)
		out[i] = f
	}
	return out
}

// Prompt is the instruction payload of one completion call.
type Prompt struct {
	System string
	User   string
}

// Field returns the top-level field with the given name.
func (s ExtractionSchema) Field(name string) (SchemaField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

// RequiredFields lists the names of required top-level fields in schema order.
func (s ExtractionSchema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
// It is deterministic and never fails; empty input still yields a complete prompt.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) Prompt {
	var sb strings.Builder

	if schema.Description != "" {
		sb.WriteString(schema.Description)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	writeFields(&sb, schema.Fields, 1)
	sb.WriteString("\n\n")

	sb.WriteString("If a field cannot be found in the text, use null for that field ")
	sb.WriteString("(use an empty array [] for list fields). Never leave a field marked (required) empty.\n\n")

	if len(schema.Rules) > 0 {
		sb.WriteString("RULES:\n")
		for _, rule := range schema.Rules {
			sb.WriteString("- ")
			sb.WriteString(rule)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return Prompt{System: schema.System, User: sb.String()}
}

func writeFields(sb *strings.Builder, fields []SchemaField, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString("{\n")
	for i, field := range fields {
		sb.WriteString(fmt.Sprintf("%s\"%s\": ", indent, field.Name))
		if field.Type == FieldObjectArray {
			sb.WriteString("[")
			writeFields(sb, field.Fields, depth+1)
			sb.WriteString("]")
		} else {
			sb.WriteString(typeHint(field))
		}
		if field.Required {
			sb.WriteString(" (required)")
		}
		if i < len(fields)-1 {
			sb.WriteString(",")
		}
		if desc := fieldComment(field); desc != "" {
			sb.WriteString(" // ")
			sb.WriteString(desc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("  ", depth-1))
	sb.WriteString("}")
}

func typeHint(field SchemaField) string {
	switch field.Type {
	case FieldOptionalString:
		if len(field.Enum) > 0 {
			quoted := make([]string, len(field.Enum))
			for i, v := range field.Enum {
				quoted[i] = fmt.Sprintf("%q", v)
			}
			return strings.Join(quoted, " | ") + " | null"
		}
		return "\"string\" | null"
	case FieldInteger:
		return "integer | null"
	case FieldNumber:
		return "number | null"
	case FieldStringArray:
		return "[\"string\"]"
	default:
		return "\"string\""
	}
}

func fieldComment(field SchemaField) string {
	desc := field.Description
	if field.MaxItems > 0 {
		limit := fmt.Sprintf("at most %d items", field.MaxItems)
		if desc == "" {
			return limit
		}
		return desc + " (" + limit + ")"
	}
	return desc
}

// JSONSchema renders the schema as a JSON Schema (draft-07) document.
// Required string fields must contain a non-whitespace character; optional
// fields also accept null.
func (s ExtractionSchema) JSONSchema() map[string]any {
	doc := objectSchema(s.Fields)
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"
	if s.Name != "" {
		doc["title"] = s.Name
	}
	return doc
}

// JSONSchemaString is JSONSchema marshalled to a string.
func (s ExtractionSchema) JSONSchemaString() string {
	b, err := json.Marshal(s.JSONSchema())
	if err != nil {
		// Only maps, slices, strings and ints are involved.
		panic(fmt.Sprintf("llm: marshal schema %s: %v", s.Name, err))
	}
	return string(b)
}

func objectSchema(fields []SchemaField) map[string]any {
	props := make(map[string]any, len(fields))
	required := []string{}
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func fieldSchema(f SchemaField) map[string]any {
	switch f.Type {
	case FieldString:
		if f.Required {
			return map[string]any{"type": "string", "pattern": `\S`}
		}
		return map[string]any{"type": []string{"string", "null"}}
	case FieldOptionalString:
		out := map[string]any{"type": []string{"string", "null"}}
		if len(f.Enum) > 0 {
			enum := make([]any, 0, len(f.Enum)+1)
			for _, v := range f.Enum {
				enum = append(enum, v)
			}
			out["enum"] = append(enum, nil)
		}
		return out
	case FieldInteger:
		return map[string]any{"type": []string{"integer", "null"}}
	case FieldNumber:
		return map[string]any{"type": []string{"number", "null"}}
	case FieldStringArray:
		out := map[string]any{
			"type":  []string{"array", "null"},
			"items": map[string]any{"type": "string"},
		}
		if f.MaxItems > 0 {
			out["maxItems"] = f.MaxItems
		}
		return out
	case FieldObjectArray:
		out := map[string]any{
			"type":  []string{"array", "null"},
			"items": objectSchema(f.Fields),
		}
		if f.MaxItems > 0 {
			out["maxItems"] = f.MaxItems
		}
		return out
	default:
		return map[string]any{}
	}
}
