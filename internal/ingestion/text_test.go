package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "line endings", input: "Line 1\r\nLine 2\rLine 3\nLine 4", want: "Line 1\nLine 2\nLine 3\nLine 4"},
		{name: "trailing whitespace", input: "Jane Doe   \nEngineer\t", want: "Jane Doe\nEngineer"},
		{name: "inner spacing preserved", input: "Go  |  Python", want: "Go  |  Python"},
		{name: "excessive blank lines", input: "Line 1\n\n\n\n\nLine 2", want: "Line 1\n\nLine 2"},
		{name: "control characters", input: "Jane\x00 Doe\x0b\tEngineer", want: "Jane Doe\tEngineer"},
		{name: "leading and trailing newlines", input: "\n\nJane\n\n", want: "Jane"},
		{name: "indentation kept", input: "Experience\n  - Built APIs", want: "Experience\n  - Built APIs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestCleanText_Deterministic(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	assert.Equal(t, CleanText(input), CleanText(input))
	assert.Equal(t, CleanText(input), CleanText(CleanText(input)))
}
