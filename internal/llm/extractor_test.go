package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:        "Contact",
		System:      "You extract contacts.",
		Description: "Extract the contact details.",
		Fields: []SchemaField{
			{Name: "name", Type: FieldString, Description: "Full name", Required: true},
			{Name: "email", Type: FieldOptionalString, Description: "Email address"},
			{Name: "level", Type: FieldOptionalString, Enum: []string{"Junior", "Senior"}},
			{Name: "age", Type: FieldInteger},
			{Name: "score", Type: FieldNumber},
			{Name: "tags", Type: FieldStringArray, Description: "Keywords", MaxItems: 3},
			{Name: "jobs", Type: FieldObjectArray, Fields: []SchemaField{
				{Name: "company", Type: FieldString},
				{Name: "highlights", Type: FieldStringArray},
			}},
		},
		Rules: []string{"Infer the level from the years of experience."},
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := BuildExtractionPrompt(testSchema(), "Jane Doe\njane@x.com")

	assert.Equal(t, "You extract contacts.", prompt.System)

	user := prompt.User
	assert.True(t, strings.HasPrefix(user, "Extract the contact details.\n\n"))
	assert.Contains(t, user, `"name": "string" (required), // Full name`)
	assert.Contains(t, user, `"email": "string" | null, // Email address`)
	assert.Contains(t, user, `"level": "Junior" | "Senior" | null,`)
	assert.Contains(t, user, `"age": integer | null,`)
	assert.Contains(t, user, `"tags": ["string"], // Keywords (at most 3 items)`)
	assert.Contains(t, user, `"company": "string",`)
	assert.Contains(t, user, "use null for that field")
	assert.Contains(t, user, "RULES:\n- Infer the level from the years of experience.\n")
	assert.Contains(t, user, "Return ONLY the JSON object")
	assert.True(t, strings.HasSuffix(user, "Input text:\n\"\"\"\nJane Doe\njane@x.com\n\"\"\"\n"))
}

func TestBuildExtractionPrompt_FieldOrderFollowsSchema(t *testing.T) {
	user := BuildExtractionPrompt(testSchema(), "").User

	last := -1
	for _, f := range testSchema().Fields {
		idx := strings.Index(user, `"`+f.Name+`":`)
		require.Greater(t, idx, last, "field %s out of order", f.Name)
		last = idx
	}
}

func TestBuildExtractionPrompt_DeterministicAndEmptyInput(t *testing.T) {
	a := BuildExtractionPrompt(testSchema(), "")
	b := BuildExtractionPrompt(testSchema(), "")
	assert.Equal(t, a, b)
	assert.Contains(t, a.User, "Input text:\n\"\"\"\n\n\"\"\"\n")
}

func TestBuildExtractionPrompt_NoRulesSection(t *testing.T) {
	schema := testSchema()
	schema.Rules = nil
	assert.NotContains(t, BuildExtractionPrompt(schema, "x").User, "RULES:")
}

func TestExtractionSchema_JSONSchema(t *testing.T) {
	schema := testSchema()
	doc := schema.JSONSchema()

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []string{"name"}, doc["required"])

	props := doc["properties"].(map[string]any)
	assert.Len(t, props, len(schema.Fields))
	assert.Equal(t, map[string]any{"type": "string", "pattern": `\S`}, props["name"])
	assert.Equal(t, []any{"Junior", "Senior", nil}, props["level"].(map[string]any)["enum"])
	assert.Equal(t, 3, props["tags"].(map[string]any)["maxItems"])

	jobs := props["jobs"].(map[string]any)["items"].(map[string]any)
	assert.NotContains(t, jobs, "required")

	var roundTrip map[string]any
	require.NoError(t, json.Unmarshal([]byte(schema.JSONSchemaString()), &roundTrip))
	assert.Equal(t, "Contact", roundTrip["title"])
}

func TestExtractionSchema_Lookups(t *testing.T) {
	schema := testSchema()
	assert.Equal(t, []string{"name"}, schema.RequiredFields())

	f, ok := schema.Field("tags")
	assert.True(t, ok)
	assert.Equal(t, 3, f.MaxItems)

	_, ok = schema.Field("missing")
	assert.False(t, ok)
}

func TestExtractionSchema_Clone(t *testing.T) {
	orig := testSchema()
	clone := orig.Clone()
	require.Equal(t, orig, clone)

	clone.Fields[0].Name = "changed"
	clone.Fields[2].Enum[0] = "Intern"
	clone.Fields[6].Fields[0].Name = "employer"
	clone.Rules[0] = "changed"

	assert.Equal(t, testSchema(), orig)
}
