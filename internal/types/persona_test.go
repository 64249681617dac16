package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonaInput_Validate(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	tests := []struct {
		name    string
		input   PersonaInput
		wantErr bool
	}{
		{name: "empty", input: PersonaInput{}},
		{name: "valid", input: PersonaInput{
			Name:            str("Jane Doe"),
			Email:           str("jane@x.com"),
			ExperienceLevel: str("Mid-Level"),
			Gender:          str("female"),
			Skills:          []string{"Go"},
			SalaryMin:       num(90000),
			AvatarURL:       str("https://cdn.example.com/a.png"),
		}},
		{name: "blank name", input: PersonaInput{Name: str("")}, wantErr: true},
		{name: "bad email", input: PersonaInput{Email: str("jane")}, wantErr: true},
		{name: "unknown level", input: PersonaInput{ExperienceLevel: str("Guru")}, wantErr: true},
		{name: "unknown gender", input: PersonaInput{Gender: str("other")}, wantErr: true},
		{name: "empty skill", input: PersonaInput{Skills: []string{"Go", ""}}, wantErr: true},
		{name: "negative salary", input: PersonaInput{SalaryMax: num(-1)}, wantErr: true},
		{name: "bad avatar url", input: PersonaInput{AvatarURL: str("not a url")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseTextRequest_Validate(t *testing.T) {
	assert.Error(t, (&ParseTextRequest{}).Validate())
	assert.NoError(t, (&ParseTextRequest{CVText: "Jane Doe"}).Validate())
}
