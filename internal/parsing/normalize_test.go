package parsing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkillName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"golang", "Go"},
		{"  Golang ", "Go"},
		{"k8s", "Kubernetes"},
		{"nodejs", "Node.js"},
		{"AWS", "AWS"},
		{"gRPC", "gRPC"},
		{"machine   learning", "machine learning"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSkillName(tt.input))
		})
	}
}

func TestOptInt(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  *int
	}{
		{name: "integer", input: json.Number("120000"), want: intPtr(120000)},
		{name: "float truncated", input: json.Number("99999.9"), want: intPtr(99999)},
		{name: "currency string", input: "USD 75,500", want: intPtr(75500)},
		{name: "k suffix", input: "110K", want: intPtr(110000)},
		{name: "negative", input: json.Number("-1"), want: nil},
		{name: "words", input: "negotiable", want: nil},
		{name: "bool", input: true, want: nil},
		{name: "nil", input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, optInt(tt.input))
		})
	}
}

func TestOptConfidence(t *testing.T) {
	assert.InDelta(t, 0.9, *optConfidence(json.Number("0.9")), 1e-9)
	assert.InDelta(t, 0.9, *optConfidence(json.Number("90")), 1e-9)
	assert.InDelta(t, 0.75, *optConfidence("75%"), 1e-9)
	assert.Nil(t, optConfidence(json.Number("250")))
	assert.Nil(t, optConfidence("high"))
}

func TestStringList(t *testing.T) {
	items := []any{" Go ", "go", json.Number("3"), map[string]any{"x": 1}, "", "Rust"}
	assert.Equal(t, []string{"Go", "3", "Rust"}, stringList(items, 0, nil))
	assert.Equal(t, []string{"Go"}, stringList(items, 1, nil))
	assert.Equal(t, []string{}, stringList(nil, 0, nil))
}

func TestOptEnum(t *testing.T) {
	levels := []string{"Entry", "Mid-Level", "Senior"}
	assert.Equal(t, "Mid-Level", *optEnum("MID_LEVEL", levels, nil))
	assert.Equal(t, "Entry", *optEnum("junior", levels, experienceLevelAliases))
	assert.Nil(t, optEnum("wizard", levels, experienceLevelAliases))
	assert.Nil(t, optEnum(7, levels, nil))
}

func intPtr(n int) *int { return &n }
