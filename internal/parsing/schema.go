// Package parsing turns completion-model replies into validated CandidateProfile records.
package parsing

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/monu322/ai-job-applier-app/internal/llm"
	"github.com/monu322/ai-job-applier-app/internal/prompts"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

const promptFile = "cv_extraction.json"

// GenderConfidenceThreshold is the minimum self-reported confidence for an
// inferred gender to be kept. Below it, or without a reported confidence,
// gender is unset.
const GenderConfidenceThreshold = 0.85

// List caps applied both in the prompt and when coercing replies.
const (
	MaxSkills             = 15
	MaxRoles              = 5
	MaxAchievements       = 4
	MaxImprovementAreas   = 5
	maxWorkHistorySkills  = 15
	maxWorkHistoryEntries = 0 // unbounded
)

// phoneCountryCodes is the advisory calling-code table offered to the model
// for inferring a location from a phone number.
var phoneCountryCodes = map[string]string{
	"+1":   "United States / Canada",
	"+7":   "Russia / Kazakhstan",
	"+20":  "Egypt",
	"+27":  "South Africa",
	"+31":  "Netherlands",
	"+33":  "France",
	"+34":  "Spain",
	"+39":  "Italy",
	"+41":  "Switzerland",
	"+44":  "United Kingdom",
	"+46":  "Sweden",
	"+49":  "Germany",
	"+52":  "Mexico",
	"+55":  "Brazil",
	"+61":  "Australia",
	"+64":  "New Zealand",
	"+65":  "Singapore",
	"+81":  "Japan",
	"+86":  "China",
	"+91":  "India",
	"+92":  "Pakistan",
	"+234": "Nigeria",
	"+254": "Kenya",
	"+353": "Ireland",
	"+880": "Bangladesh",
	"+966": "Saudi Arabia",
	"+971": "United Arab Emirates",
	"+974": "Qatar",
}

// PhoneCountryCodes returns a copy of the calling-code table used in the
// extraction prompt.
func PhoneCountryCodes() map[string]string {
	return maps.Clone(phoneCountryCodes)
}

// phoneCodeTable renders phoneCountryCodes in ascending numeric order.
func phoneCodeTable() string {
	codes := make([]string, 0, len(phoneCountryCodes))
	for code := range phoneCountryCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(codes[i], "+"))
		b, _ := strconv.Atoi(strings.TrimPrefix(codes[j], "+"))
		return a < b
	})

	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = code + " " + phoneCountryCodes[code]
	}
	return strings.Join(parts, ", ")
}

var candidateSchema = sync.OnceValue(buildCandidateProfileSchema)

// CandidateProfileSchema returns the extraction schema for CVs. It drives
// both the prompt and the reply validation. Each call returns a fresh copy.
func CandidateProfileSchema() llm.ExtractionSchema {
	return candidateSchema().Clone()
}

func buildCandidateProfileSchema() llm.ExtractionSchema {
	rules, err := prompts.WithPrefix(promptFile, "rule-")
	if err != nil {
		panic(fmt.Sprintf("failed to load CV extraction rules: %v", err))
	}
	vars := map[string]string{
		"PhoneCodes":      phoneCodeTable(),
		"GenderThreshold": fmt.Sprintf("%d%%", int(GenderConfidenceThreshold*100)),
	}
	for i, rule := range rules {
		rules[i] = prompts.Format(rule, vars)
	}

	return llm.ExtractionSchema{
		Name:        "CandidateProfile",
		System:      prompts.MustGet(promptFile, "system"),
		Description: prompts.MustGet(promptFile, "description"),
		Rules:       rules,
		Fields: []llm.SchemaField{
			{Name: "name", Type: llm.FieldString, Required: true, Description: "Full name of the candidate"},
			{Name: "title", Type: llm.FieldString, Required: true, Description: "Current or most recent professional title"},
			{Name: "email", Type: llm.FieldOptionalString, Description: "Email address"},
			{Name: "phone", Type: llm.FieldOptionalString, Description: "Phone number including country code"},
			{Name: "location", Type: llm.FieldOptionalString, Description: "Current location, stated or inferred from the phone code"},
			{Name: "job_search_location", Type: llm.FieldOptionalString, Description: "Preferred work location"},
			{Name: "experience", Type: llm.FieldOptionalString, Description: "Total professional experience, e.g. \"6 years\""},
			{Name: "experience_level", Type: llm.FieldOptionalString, Enum: types.ExperienceLevels},
			{Name: "education", Type: llm.FieldOptionalString, Description: "Highest degree and institution"},
			{Name: "summary", Type: llm.FieldOptionalString, Description: "2-3 sentence professional summary"},
			{Name: "gender", Type: llm.FieldOptionalString, Enum: types.Genders, Description: "Inferred from the first name, see rules"},
			{Name: "gender_confidence", Type: llm.FieldNumber, Description: "Confidence of the gender inference, 0 to 1"},
			{Name: "skills", Type: llm.FieldStringArray, MaxItems: MaxSkills, Description: "Most relevant skills first"},
			{Name: "roles", Type: llm.FieldStringArray, MaxItems: MaxRoles, Description: "3-5 suitable job titles"},
			{Name: "work_history", Type: llm.FieldObjectArray, MaxItems: maxWorkHistoryEntries, Description: "Most recent first", Fields: []llm.SchemaField{
				{Name: "company", Type: llm.FieldString},
				{Name: "position", Type: llm.FieldString},
				{Name: "duration", Type: llm.FieldOptionalString, Description: "e.g. \"2 years 3 months\""},
				{Name: "description", Type: llm.FieldOptionalString, Description: "What the role involved"},
				{Name: "achievements", Type: llm.FieldStringArray, MaxItems: MaxAchievements, Description: "From this entry's text only"},
				{Name: "start_date", Type: llm.FieldOptionalString, Description: "YYYY-MM"},
				{Name: "end_date", Type: llm.FieldOptionalString, Description: "YYYY-MM or \"Present\""},
				{Name: "skills", Type: llm.FieldStringArray, MaxItems: maxWorkHistorySkills, Description: "Skills used in this role"},
			}},
			{Name: "areas_of_improvement", Type: llm.FieldObjectArray, MaxItems: MaxImprovementAreas, Fields: []llm.SchemaField{
				{Name: "title", Type: llm.FieldString},
				{Name: "description", Type: llm.FieldString},
			}},
			{Name: "salary_min", Type: llm.FieldInteger, Description: "Estimated annual salary lower bound, USD"},
			{Name: "salary_max", Type: llm.FieldInteger, Description: "Estimated annual salary upper bound, USD"},
		},
	}
}

// BuildPrompt renders the CV extraction prompt for text.
func BuildPrompt(text string) llm.Prompt {
	return llm.BuildExtractionPrompt(CandidateProfileSchema(), text)
}
