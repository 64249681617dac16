// Package types provides type definitions for structured data shared across the API.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Experience levels accepted in CandidateProfile.ExperienceLevel.
const (
	ExperienceEntry     = "Entry"
	ExperienceMidLevel  = "Mid-Level"
	ExperienceSenior    = "Senior"
	ExperienceLead      = "Lead"
	ExperienceExecutive = "Executive"
)

// ExperienceLevels lists the experience levels from junior to senior.
var ExperienceLevels = []string{ExperienceEntry, ExperienceMidLevel, ExperienceSenior, ExperienceLead, ExperienceExecutive}

// Genders accepted in CandidateProfile.Gender.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Genders lists the accepted gender values.
var Genders = []string{GenderMale, GenderFemale}

// PresentEndDate marks the current role in WorkHistoryEntry.EndDate.
const PresentEndDate = "Present"

// CandidateProfile is the structured record extracted from a CV.
// Name and Title are always non-empty; optional scalars are nil when unknown
// and lists are empty rather than nil.
type CandidateProfile struct {
	Name               string             `json:"name"`
	Title              string             `json:"title"`
	Email              *string            `json:"email"`
	Phone              *string            `json:"phone"`
	Location           *string            `json:"location"`
	JobSearchLocation  *string            `json:"job_search_location"`
	Experience         *string            `json:"experience"`
	ExperienceLevel    *string            `json:"experience_level"`
	Education          *string            `json:"education"`
	Summary            *string            `json:"summary"`
	Gender             *string            `json:"gender"`
	GenderConfidence   *float64           `json:"gender_confidence"`
	Skills             []string           `json:"skills"`
	Roles              []string           `json:"roles"`
	WorkHistory        []WorkHistoryEntry `json:"work_history"`
	AreasOfImprovement []ImprovementArea  `json:"areas_of_improvement"`
	SalaryMin          *int               `json:"salary_min"`
	SalaryMax          *int               `json:"salary_max"`
}

// WorkHistoryEntry is one role in a candidate's work history.
type WorkHistoryEntry struct {
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	Duration     *string  `json:"duration"`
	Description  *string  `json:"description"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	Achievements []string `json:"achievements"`
	Skills       []string `json:"skills"`
}

// ImprovementArea is a suggestion for strengthening the CV.
type ImprovementArea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// IsCurrent reports whether the entry is the candidate's present role.
func (w WorkHistoryEntry) IsCurrent() bool {
	return w.EndDate != nil && *w.EndDate == PresentEndDate
}
