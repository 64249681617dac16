package persona

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// readOnlyFields may appear in a payload, since clients often send back a
// whole record, but are never written.
var readOnlyFields = map[string]bool{
	"id":               true,
	"user_id":          true,
	"market_demand":    true,
	"global_matches":   true,
	"confidence_score": true,
	"created_at":       true,
	"updated_at":       true,
}

var jsonNull = []byte("null")

// Input is a decoded and validated persona payload.
type Input struct {
	types.PersonaInput

	// Fields holds the canonical names of the writable fields present in
	// the payload, sorted.
	Fields []string
}

// DecodeInput canonicalizes the keys of a JSON object, drops read-only
// fields, rejects unknown ones and validates the rest.
func DecodeInput(raw map[string]json.RawMessage) (*Input, error) {
	writable := make(map[string]json.RawMessage, len(raw))
	var unknown []string
	for key, value := range ToCanonical(raw) {
		switch {
		case readOnlyFields[key]:
		case db.UpdatableColumns[key]:
			writable[key] = value
		default:
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ValidationError{Message: "unknown fields: " + strings.Join(unknown, ", ")}
	}

	body, err := json.Marshal(writable)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode persona payload: %w", err)
	}
	in := &Input{Fields: make([]string, 0, len(writable))}
	if err := json.Unmarshal(body, &in.PersonaInput); err != nil {
		return nil, &ValidationError{Message: "invalid persona payload", Cause: err}
	}
	if err := in.PersonaInput.Validate(); err != nil {
		return nil, &ValidationError{Message: "invalid persona fields", Cause: err}
	}

	for key, value := range writable {
		if bytes.Equal(bytes.TrimSpace(value), jsonNull) {
			switch key {
			case "name", "title", "is_active":
				return nil, &ValidationError{Message: key + " cannot be null"}
			}
		}
		in.Fields = append(in.Fields, key)
	}
	sort.Strings(in.Fields)
	return in, nil
}

// Has reports whether field was present in the payload.
func (in *Input) Has(field string) bool {
	i := sort.SearchStrings(in.Fields, field)
	return i < len(in.Fields) && in.Fields[i] == field
}

// value returns the column value for a canonical field name. Lists are
// never NULL.
func (in *Input) value(field string) any {
	switch field {
	case "name":
		return *in.Name
	case "title":
		return *in.Title
	case "email":
		return in.Email
	case "phone":
		return in.Phone
	case "location":
		return in.Location
	case "job_search_location":
		return in.JobSearchLocation
	case "experience":
		return in.Experience
	case "experience_level":
		return in.ExperienceLevel
	case "education":
		return in.Education
	case "summary":
		return in.Summary
	case "gender":
		return in.Gender
	case "skills":
		return listOf(in.Skills)
	case "roles":
		return listOf(in.Roles)
	case "work_history":
		return listOf(in.WorkHistory)
	case "areas_of_improvement":
		return listOf(in.AreasOfImprovement)
	case "salary_min":
		return in.SalaryMin
	case "salary_max":
		return in.SalaryMax
	case "avatar_url":
		return in.AvatarURL
	case "cv_file_name":
		return in.CVFileName
	case "cv_file_url":
		return in.CVFileURL
	case "is_active":
		return *in.IsActive
	}
	return nil
}

// columns returns the update set for every present field except is_active.
func (in *Input) columns() map[string]any {
	cols := make(map[string]any, len(in.Fields))
	for _, field := range in.Fields {
		if field == "is_active" {
			continue
		}
		cols[field] = in.value(field)
	}
	return cols
}

// persona builds a new row from a create payload.
func (in *Input) persona(userID uuid.UUID) *db.Persona {
	p := &db.Persona{
		UserID:             userID,
		Email:              in.Email,
		Phone:              in.Phone,
		Location:           in.Location,
		JobSearchLocation:  in.JobSearchLocation,
		Experience:         in.Experience,
		ExperienceLevel:    in.ExperienceLevel,
		Education:          in.Education,
		Summary:            in.Summary,
		Gender:             in.Gender,
		Skills:             listOf(in.Skills),
		Roles:              listOf(in.Roles),
		WorkHistory:        listOf(in.WorkHistory),
		AreasOfImprovement: listOf(in.AreasOfImprovement),
		SalaryMin:          in.SalaryMin,
		SalaryMax:          in.SalaryMax,
		AvatarURL:          in.AvatarURL,
		CVFileName:         in.CVFileName,
		CVFileURL:          in.CVFileURL,
		MarketDemand:       db.DefaultMarketDemand,
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	return p
}
