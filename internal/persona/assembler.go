// Package persona turns extracted candidate profiles into stored personas
// and implements the persona operations behind the HTTP API.
package persona

import (
	"github.com/google/uuid"

	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// AssembleOptions carries the request context that is not part of the
// extracted profile.
type AssembleOptions struct {
	UserID     uuid.UUID
	IsFirst    bool   // the user has no personas yet
	CVFileName string // original upload name, empty for pasted text
}

// Assemble maps a parsed profile onto a new persona row. The first persona
// of a user is created active.
func Assemble(profile *types.CandidateProfile, opts AssembleOptions) (*db.Persona, error) {
	if err := checkSalaryRange(profile.SalaryMin, profile.SalaryMax); err != nil {
		return nil, err
	}

	p := &db.Persona{
		UserID:             opts.UserID,
		Name:               profile.Name,
		Title:              profile.Title,
		Email:              profile.Email,
		Phone:              profile.Phone,
		Location:           profile.Location,
		JobSearchLocation:  profile.JobSearchLocation,
		Experience:         profile.Experience,
		ExperienceLevel:    profile.ExperienceLevel,
		Education:          profile.Education,
		Summary:            profile.Summary,
		Gender:             profile.Gender,
		Skills:             listOf(profile.Skills),
		Roles:              listOf(profile.Roles),
		WorkHistory:        listOf(profile.WorkHistory),
		AreasOfImprovement: listOf(profile.AreasOfImprovement),
		SalaryMin:          profile.SalaryMin,
		SalaryMax:          profile.SalaryMax,
		IsActive:           opts.IsFirst,
		MarketDemand:       db.DefaultMarketDemand,
		GlobalMatches:      0,
		ConfidenceScore:    0,
	}
	if opts.CVFileName != "" {
		name := opts.CVFileName
		p.CVFileName = &name
	}
	return p, nil
}

func checkSalaryRange(minSalary, maxSalary *int) error {
	if minSalary != nil && maxSalary != nil && *minSalary > *maxSalary {
		return &InvalidSalaryRangeError{Min: *minSalary, Max: *maxSalary}
	}
	return nil
}

func listOf[T any](items []T) db.JSONList[T] {
	if items == nil {
		return db.JSONList[T]{}
	}
	return db.JSONList[T](items)
}
