package types

import (
	"github.com/go-playground/validator/v10"
)

// PersonaInput is the body of persona create and update requests, keyed by
// canonical snake_case names. Pointer fields distinguish "not sent" from
// zero values; explicit nulls are tracked by the caller.
type PersonaInput struct {
	Name               *string            `json:"name" validate:"omitempty,min=1,max=200"`
	Title              *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Email              *string            `json:"email" validate:"omitempty,email"`
	Phone              *string            `json:"phone" validate:"omitempty,max=50"`
	Location           *string            `json:"location" validate:"omitempty,max=200"`
	JobSearchLocation  *string            `json:"job_search_location" validate:"omitempty,max=200"`
	Experience         *string            `json:"experience" validate:"omitempty,max=100"`
	ExperienceLevel    *string            `json:"experience_level" validate:"omitempty,oneof=Entry Mid-Level Senior Lead Executive"`
	Education          *string            `json:"education" validate:"omitempty,max=500"`
	Summary            *string            `json:"summary" validate:"omitempty,max=2000"`
	Gender             *string            `json:"gender" validate:"omitempty,oneof=male female"`
	Skills             []string           `json:"skills" validate:"omitempty,max=50,dive,min=1,max=100"`
	Roles              []string           `json:"roles" validate:"omitempty,max=20,dive,min=1,max=200"`
	WorkHistory        []WorkHistoryEntry `json:"work_history" validate:"omitempty,max=50"`
	AreasOfImprovement []ImprovementArea  `json:"areas_of_improvement" validate:"omitempty,max=20"`
	SalaryMin          *int               `json:"salary_min" validate:"omitempty,min=0"`
	SalaryMax          *int               `json:"salary_max" validate:"omitempty,min=0"`
	AvatarURL          *string            `json:"avatar_url" validate:"omitempty,url"`
	CVFileName         *string            `json:"cv_file_name" validate:"omitempty,max=255"`
	CVFileURL          *string            `json:"cv_file_url" validate:"omitempty,url"`
	IsActive           *bool              `json:"is_active"`
}

// Validate validates the PersonaInput using the validator.
func (p *PersonaInput) Validate() error {
	return validator.New().Struct(p)
}

// ParseTextRequest is the body of the parse-text endpoint.
type ParseTextRequest struct {
	CVText string `json:"cv_text" validate:"required"`
}

// Validate validates the ParseTextRequest using the validator.
func (r *ParseTextRequest) Validate() error {
	return validator.New().Struct(r)
}
