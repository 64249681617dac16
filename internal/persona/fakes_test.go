package persona

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// fakeStore is an in-memory Store with the same ownership and activation
// rules as the database.
type fakeStore struct {
	mu         sync.Mutex
	personas   map[uuid.UUID]db.Persona
	lastUpdate map[string]any
	setURLErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{personas: make(map[uuid.UUID]db.Persona)}
}

func (f *fakeStore) ListPersonas(_ context.Context, userID uuid.UUID) ([]db.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.Persona{}
	for _, p := range f.personas {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) GetPersona(_ context.Context, userID, id uuid.UUID) (*db.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.personas[id]
	if !ok || p.UserID != userID {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) CountPersonas(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.personas {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CreatePersona(_ context.Context, p *db.Persona) (*db.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.IsActive {
		for _, other := range f.personas {
			if other.UserID == p.UserID && other.IsActive {
				return nil, db.ErrConflict
			}
		}
	}
	row := *p
	row.ID = uuid.New()
	row.CreatedAt = time.Now().Add(time.Duration(len(f.personas)) * time.Millisecond)
	row.UpdatedAt = row.CreatedAt
	f.personas[row.ID] = row
	return &row, nil
}

func (f *fakeStore) UpdatePersona(_ context.Context, userID, id uuid.UUID, fields map[string]any) (*db.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(fields) == 0 {
		return nil, errors.New("no fields to update")
	}
	p, ok := f.personas[id]
	if !ok || p.UserID != userID {
		return nil, db.ErrNotFound
	}
	f.lastUpdate = fields
	for column, value := range fields {
		switch column {
		case "name":
			p.Name = value.(string)
		case "title":
			p.Title = value.(string)
		case "summary":
			p.Summary = value.(*string)
		case "salary_min":
			p.SalaryMin = value.(*int)
		case "salary_max":
			p.SalaryMax = value.(*int)
		case "skills":
			p.Skills = value.(db.JSONList[string])
		case "is_active":
			p.IsActive = value.(bool)
		case "cv_file_url":
			p.CVFileURL = value.(*string)
		}
	}
	f.personas[id] = p
	return &p, nil
}

func (f *fakeStore) SetCVFileURL(ctx context.Context, userID, id uuid.UUID, url string) (*db.Persona, error) {
	if f.setURLErr != nil {
		return nil, f.setURLErr
	}
	return f.UpdatePersona(ctx, userID, id, map[string]any{"cv_file_url": &url})
}

func (f *fakeStore) DeletePersona(_ context.Context, userID, id uuid.UUID) (*db.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.personas[id]
	if !ok || p.UserID != userID {
		return nil, db.ErrNotFound
	}
	delete(f.personas, id)
	return &p, nil
}

func (f *fakeStore) ActivatePersona(_ context.Context, userID, id uuid.UUID) (*db.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.personas[id]
	if !ok || target.UserID != userID {
		return nil, db.ErrNotFound
	}
	for pid, p := range f.personas {
		if p.UserID == userID {
			p.IsActive = pid == id
			f.personas[pid] = p
		}
	}
	target = f.personas[id]
	return &target, nil
}

func (f *fakeStore) activeCount(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.personas {
		if p.UserID == userID && p.IsActive {
			n++
		}
	}
	return n
}

// fakeExtractor returns a fixed profile and counts calls.
type fakeExtractor struct {
	profile *types.CandidateProfile
	err     error
	calls   int
}

func (f *fakeExtractor) ExtractProfile(context.Context, []byte, string) (*types.CandidateProfile, error) {
	f.calls++
	return f.profile, f.err
}

func (f *fakeExtractor) ExtractFromText(context.Context, string) (*types.CandidateProfile, error) {
	f.calls++
	return f.profile, f.err
}

const fakeBlobBase = "http://blobs.local/cvs"

// fakeBlobs is an in-memory CVStore.
type fakeBlobs struct {
	objects   map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(_ context.Context, objectName string, data []byte, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.objects[objectName] = data
	return fakeBlobBase + "/" + objectName, nil
}

func (f *fakeBlobs) Delete(_ context.Context, objectName string) error {
	f.deleted = append(f.deleted, objectName)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, objectName)
	return nil
}

func (f *fakeBlobs) ObjectName(objectURL string) (string, bool) {
	return strings.CutPrefix(objectURL, fakeBlobBase+"/")
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func janeProfile() *types.CandidateProfile {
	return &types.CandidateProfile{
		Name:               "Jane Doe",
		Title:              "Backend Engineer",
		Email:              strPtr("jane@x.com"),
		Location:           strPtr("United Kingdom"),
		ExperienceLevel:    strPtr(types.ExperienceMidLevel),
		Skills:             []string{"Go", "PostgreSQL"},
		Roles:              []string{"Backend Engineer"},
		WorkHistory:        []types.WorkHistoryEntry{{Company: "Acme", Position: "Engineer"}},
		AreasOfImprovement: []types.ImprovementArea{},
		SalaryMin:          intPtr(70000),
		SalaryMax:          intPtr(90000),
	}
}
