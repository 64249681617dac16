package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/llm"
	"github.com/monu322/ai-job-applier-app/internal/persona"
	"github.com/monu322/ai-job-applier-app/internal/pipeline"
	"github.com/monu322/ai-job-applier-app/internal/server/ratelimit"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

const testJWTSecret = "test-secret-key-that-is-long-enough"

// memStore is an in-memory persona.Store.
type memStore struct {
	mu       sync.Mutex
	personas map[uuid.UUID]db.Persona
	seq      int
}

func newMemStore() *memStore {
	return &memStore{personas: make(map[uuid.UUID]db.Persona)}
}

func (m *memStore) ListPersonas(_ context.Context, userID uuid.UUID) ([]db.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Persona{}
	for _, p := range m.personas {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetPersona(_ context.Context, userID, id uuid.UUID) (*db.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas[id]
	if !ok || p.UserID != userID {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) CountPersonas(ctx context.Context, userID uuid.UUID) (int, error) {
	list, _ := m.ListPersonas(ctx, userID)
	return len(list), nil
}

func (m *memStore) CreatePersona(_ context.Context, p *db.Persona) (*db.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	row := *p
	row.ID = uuid.New()
	row.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	row.UpdatedAt = row.CreatedAt
	m.personas[row.ID] = row
	return &row, nil
}

func (m *memStore) UpdatePersona(_ context.Context, userID, id uuid.UUID, fields map[string]any) (*db.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas[id]
	if !ok || p.UserID != userID {
		return nil, db.ErrNotFound
	}
	for column, value := range fields {
		switch column {
		case "title":
			p.Title = value.(string)
		case "job_search_location":
			p.JobSearchLocation = value.(*string)
		case "salary_min":
			p.SalaryMin = value.(*int)
		case "salary_max":
			p.SalaryMax = value.(*int)
		case "cv_file_url":
			p.CVFileURL = value.(*string)
		}
	}
	m.personas[id] = p
	return &p, nil
}

func (m *memStore) SetCVFileURL(ctx context.Context, userID, id uuid.UUID, url string) (*db.Persona, error) {
	return m.UpdatePersona(ctx, userID, id, map[string]any{"cv_file_url": &url})
}

func (m *memStore) DeletePersona(_ context.Context, userID, id uuid.UUID) (*db.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas[id]
	if !ok || p.UserID != userID {
		return nil, db.ErrNotFound
	}
	delete(m.personas, id)
	return &p, nil
}

func (m *memStore) ActivatePersona(_ context.Context, userID, id uuid.UUID) (*db.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.personas[id]
	if !ok || target.UserID != userID {
		return nil, db.ErrNotFound
	}
	for pid, p := range m.personas {
		if p.UserID == userID {
			p.IsActive = pid == id
			m.personas[pid] = p
		}
	}
	target = m.personas[id]
	return &target, nil
}

// stubClient replies to every completion with a canned response.
type stubClient struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubClient) Complete(context.Context, llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, s.err
}

func (s *stubClient) GetModel(llm.ModelTier) string { return "stub-model" }

func (s *stubClient) Close() error { return nil }

// stubIdentity is an IdentityProvider with canned results.
type stubIdentity struct {
	session *types.Session
	user    *types.User
	err     error
	tokens  []string
}

func (s *stubIdentity) SignUp(context.Context, *types.RegisterRequest) (*types.Session, error) {
	return s.session, s.err
}

func (s *stubIdentity) SignIn(context.Context, *types.LoginRequest) (*types.Session, error) {
	return s.session, s.err
}

func (s *stubIdentity) SignOut(_ context.Context, token string) error {
	s.tokens = append(s.tokens, token)
	return s.err
}

func (s *stubIdentity) GetUser(_ context.Context, token string) (*types.User, error) {
	s.tokens = append(s.tokens, token)
	return s.user, s.err
}

const janeReply = `{"name":"Jane Doe","title":"Backend Engineer","skills":["Go"],"salary_min":70000,"salary_max":90000}`

type testEnv struct {
	server   *Server
	handler  http.Handler
	store    *memStore
	client   *stubClient
	identity *stubIdentity
	jwt      *JWTService
	userID   uuid.UUID
	token    string
}

type envOption func(*Config, *Deps)

func withLimiter(cfg *ratelimit.Config) envOption {
	return func(_ *Config, d *Deps) {
		cfg.CleanupInterval = 0
		d.Limiter = ratelimit.NewLimiter(cfg)
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    newMemStore(),
		client:   &stubClient{reply: janeReply},
		identity: &stubIdentity{},
		jwt:      NewJWTService(testJWTSecret, time.Hour),
		userID:   uuid.New(),
	}

	extractor, err := pipeline.NewExtractor(env.client, pipeline.Config{MaxInputBytes: 4096})
	require.NoError(t, err)

	cfg := Config{Addr: "127.0.0.1:0", AllowedOrigins: []string{"http://localhost:3000"}, MaxUploadBytes: 4096}
	deps := Deps{
		Personas: persona.NewService(env.store, extractor, nil, zerolog.Nop()),
		Identity: env.identity,
		JWT:      env.jwt,
		Logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}

	env.server = New(cfg, deps)
	env.handler = env.server.Handler()
	t.Cleanup(env.server.rateLimiter.Stop)

	env.token, err = env.jwt.GenerateToken(env.userID, "jane@x.com")
	require.NoError(t, err)
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, target, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
