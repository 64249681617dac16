package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/monu322/ai-job-applier-app/internal/types"
)

// Persona row defaults applied on insert.
const (
	DefaultMarketDemand = "medium"
)

// Persona is a stored candidate profile owned by one user.
type Persona struct {
	ID                 uuid.UUID                        `json:"id"`
	UserID             uuid.UUID                        `json:"user_id"`
	Name               string                           `json:"name"`
	Title              string                           `json:"title"`
	Email              *string                          `json:"email"`
	Phone              *string                          `json:"phone"`
	Location           *string                          `json:"location"`
	JobSearchLocation  *string                          `json:"job_search_location"`
	Experience         *string                          `json:"experience"`
	ExperienceLevel    *string                          `json:"experience_level"`
	Education          *string                          `json:"education"`
	Summary            *string                          `json:"summary"`
	Gender             *string                          `json:"gender"`
	Skills             JSONList[string]                 `json:"skills"`
	Roles              JSONList[string]                 `json:"roles"`
	WorkHistory        JSONList[types.WorkHistoryEntry] `json:"work_history"`
	AreasOfImprovement JSONList[types.ImprovementArea]  `json:"areas_of_improvement"`
	SalaryMin          *int                             `json:"salary_min"`
	SalaryMax          *int                             `json:"salary_max"`
	AvatarURL          *string                          `json:"avatar_url"`
	CVFileName         *string                          `json:"cv_file_name"`
	CVFileURL          *string                          `json:"cv_file_url"`
	IsActive           bool                             `json:"is_active"`
	MarketDemand       string                           `json:"market_demand"`
	GlobalMatches      int                              `json:"global_matches"`
	ConfidenceScore    float64                          `json:"confidence_score"`
	CreatedAt          time.Time                        `json:"created_at"`
	UpdatedAt          time.Time                        `json:"updated_at"`
}

// User is an account managed by the local identity provider.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize to JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JSONList is a JSONB array column. It scans NULL as an empty list and
// stores a nil list as [].
type JSONList[T any] []T

// Scan implements the Scanner interface
func (l *JSONList[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = JSONList[T]{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON list", src)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("failed to decode JSON list: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	*l = items
	return nil
}

// Value implements the Valuer interface
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(l))
}

// MarshalJSON encodes a nil list as [].
func (l JSONList[T]) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(l))
}
