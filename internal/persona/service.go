package persona

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/ingestion"
	"github.com/monu322/ai-job-applier-app/internal/storage"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// Store is the persistence the service needs. *db.DB implements it.
type Store interface {
	ListPersonas(ctx context.Context, userID uuid.UUID) ([]db.Persona, error)
	GetPersona(ctx context.Context, userID, id uuid.UUID) (*db.Persona, error)
	CountPersonas(ctx context.Context, userID uuid.UUID) (int, error)
	CreatePersona(ctx context.Context, p *db.Persona) (*db.Persona, error)
	UpdatePersona(ctx context.Context, userID, id uuid.UUID, fields map[string]any) (*db.Persona, error)
	SetCVFileURL(ctx context.Context, userID, id uuid.UUID, url string) (*db.Persona, error)
	DeletePersona(ctx context.Context, userID, id uuid.UUID) (*db.Persona, error)
	ActivatePersona(ctx context.Context, userID, id uuid.UUID) (*db.Persona, error)
}

var _ Store = (*db.DB)(nil)

// ProfileExtractor runs the CV extraction pipeline. *pipeline.Extractor
// implements it.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, data []byte, filename string) (*types.CandidateProfile, error)
	ExtractFromText(ctx context.Context, text string) (*types.CandidateProfile, error)
}

// CreateResult is the outcome of CreateFromCV. When the persona was saved
// but the CV could not be stored, Persona.CVFileURL is nil and UploadError
// says why.
type CreateResult struct {
	Persona     *db.Persona
	UploadError error
}

// Service implements persona operations scoped to one user at a time.
type Service struct {
	store     Store
	extractor ProfileExtractor
	blobs     storage.CVStore // nil when blob storage is disabled
	logger    zerolog.Logger
}

// NewService creates a Service. blobs may be nil.
func NewService(store Store, extractor ProfileExtractor, blobs storage.CVStore, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		blobs:     blobs,
		logger:    logger.With().Str("component", "persona").Logger(),
	}
}

// List returns the user's personas.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]db.Persona, error) {
	return s.store.ListPersonas(ctx, userID)
}

// Get returns one of the user's personas.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*db.Persona, error) {
	return s.store.GetPersona(ctx, userID, id)
}

// Create stores a persona from a decoded payload. The user's first persona
// is active; a later one becomes active only when the payload asks for it.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in *Input) (*db.Persona, error) {
	if in.Name == nil || in.Title == nil {
		return nil, &ValidationError{Message: "name and title are required"}
	}
	if err := checkSalaryRange(in.SalaryMin, in.SalaryMax); err != nil {
		return nil, err
	}

	isFirst, err := s.isFirst(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := in.persona(userID)
	p.IsActive = isFirst

	created, err := s.store.CreatePersona(ctx, p)
	if err != nil {
		return nil, err
	}
	if !isFirst && in.IsActive != nil && *in.IsActive {
		return s.store.ActivatePersona(ctx, userID, created.ID)
	}
	return created, nil
}

// Update applies a partial update. Setting is_active to true activates the
// persona and deactivates the others.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in *Input) (*db.Persona, error) {
	if len(in.Fields) == 0 {
		return nil, &ValidationError{Message: "no fields to update"}
	}

	if in.Has("salary_min") || in.Has("salary_max") {
		current, err := s.store.GetPersona(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		minSalary, maxSalary := current.SalaryMin, current.SalaryMax
		if in.Has("salary_min") {
			minSalary = in.SalaryMin
		}
		if in.Has("salary_max") {
			maxSalary = in.SalaryMax
		}
		if err := checkSalaryRange(minSalary, maxSalary); err != nil {
			return nil, err
		}
	}

	activate := in.Has("is_active") && *in.IsActive
	cols := in.columns()
	if in.Has("is_active") && !activate {
		cols["is_active"] = false
	}

	var (
		p   *db.Persona
		err error
	)
	if len(cols) > 0 {
		p, err = s.store.UpdatePersona(ctx, userID, id, cols)
		if err != nil {
			return nil, err
		}
	}
	if activate {
		return s.store.ActivatePersona(ctx, userID, id)
	}
	return p, nil
}

// Delete removes a persona and, when it has one, its stored CV. A failure
// to delete the blob is logged, not returned.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	p, err := s.store.DeletePersona(ctx, userID, id)
	if err != nil {
		return err
	}
	if p.CVFileURL == nil || s.blobs == nil {
		return nil
	}
	name, ok := s.blobs.ObjectName(*p.CVFileURL)
	if !ok {
		return nil
	}
	if err := s.blobs.Delete(ctx, name); err != nil {
		s.logger.Warn().Err(err).Str("persona_id", id.String()).Str("object", name).Msg("failed to delete stored CV")
	}
	return nil
}

// Activate makes id the user's only active persona.
func (s *Service) Activate(ctx context.Context, userID, id uuid.UUID) (*db.Persona, error) {
	return s.store.ActivatePersona(ctx, userID, id)
}

// ParseCV extracts a profile from an uploaded CV without saving anything.
func (s *Service) ParseCV(ctx context.Context, data []byte, filename string) (*types.CandidateProfile, error) {
	return s.extractor.ExtractProfile(ctx, data, filename)
}

// ParseText extracts a profile from pasted CV text without saving anything.
func (s *Service) ParseText(ctx context.Context, text string) (*types.CandidateProfile, error) {
	return s.extractor.ExtractFromText(ctx, text)
}

// CreateFromCV extracts a profile, saves it as a persona, then stores the
// CV file. An error is returned only when no persona was created; a failed
// upload is reported in the result.
func (s *Service) CreateFromCV(ctx context.Context, userID uuid.UUID, data []byte, filename string) (*CreateResult, error) {
	doc, err := ingestion.NewDocument(filename, data)
	if err != nil {
		return nil, err
	}
	profile, err := s.extractor.ExtractProfile(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	isFirst, err := s.isFirst(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := Assemble(profile, AssembleOptions{
		UserID:     userID,
		IsFirst:    isFirst,
		CVFileName: filepath.Base(filename),
	})
	if err != nil {
		return nil, err
	}
	created, err := s.store.CreatePersona(ctx, p)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Persona: created}
	if s.blobs == nil {
		s.logger.Debug().Str("persona_id", created.ID.String()).Msg("blob storage disabled, CV not stored")
		return result, nil
	}

	// Scoped by persona so deleting one persona never removes a file
	// another persona of the same user was created from.
	meta := doc.Metadata()
	objectName := meta.ObjectName(userID.String() + "/" + created.ID.String())
	url, err := s.blobs.Upload(ctx, objectName, data, meta.ContentType)
	if err != nil {
		result.UploadError = err
		s.logger.Warn().Err(err).Str("persona_id", created.ID.String()).Msg("persona created without stored CV")
		return result, nil
	}

	updated, err := s.store.SetCVFileURL(ctx, userID, created.ID, url)
	if err != nil {
		result.UploadError = fmt.Errorf("failed to record CV location: %w", err)
		s.logger.Warn().Err(err).Str("persona_id", created.ID.String()).Str("object", objectName).Msg("persona created without CV location")
		return result, nil
	}
	result.Persona = updated
	s.logger.Info().
		Str("persona_id", updated.ID.String()).
		Str("object", objectName).
		Int("size", meta.Size).
		Msg("persona created from CV")
	return result, nil
}

func (s *Service) isFirst(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := s.store.CountPersonas(ctx, userID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
