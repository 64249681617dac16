package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/persona"
	"github.com/monu322/ai-job-applier-app/internal/server/middleware"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// maxPersonaBodyBytes bounds persona create, update and parse-text bodies.
const maxPersonaBodyBytes = 1 << 20

// cvFormField is the multipart field carrying the CV upload.
const cvFormField = "file"

// fromCVResponse is the body of a from-cv response. UploadError is set
// when the persona was saved but the CV file could not be stored.
type fromCVResponse struct {
	Persona     any     `json:"persona"`
	UploadError *string `json:"upload_error"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, s.logger)
}

// userAndPersonaID returns the authenticated user and the {id} path value.
func (s *Server) userAndPersonaID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.fail(w, r, &ErrUnauthorized{})
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "Persona not found")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.fail(w, r, &ErrUnauthorized{})
		return uuid.Nil, false
	}
	return userID, true
}

// personaBody renders a persona, with camelCase keys when the request asks
// for ?case=camel.
func personaBody(r *http.Request, p *db.Persona) (any, error) {
	if r.URL.Query().Get("case") != "camel" {
		return p, nil
	}
	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	return persona.ToCamel(fields), nil
}

func (s *Server) writePersona(w http.ResponseWriter, r *http.Request, status int, p *db.Persona) {
	body, err := personaBody(r, p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, status, body)
}

// decodePersonaInput reads a persona payload using either field naming.
func (s *Server) decodePersonaInput(w http.ResponseWriter, r *http.Request) (*persona.Input, error) {
	var raw map[string]json.RawMessage
	if err := decodeJSONBody(w, r, maxPersonaBodyBytes, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &ErrValidation{Message: "request body must be a JSON object"}
	}
	return persona.DecodeInput(raw)
}

// readUpload returns the bytes and name of the multipart CV file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", err
		}
		return nil, "", &ErrValidation{Field: cvFormField, Message: "expected a multipart/form-data upload"}
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(cvFormField)
	if err != nil {
		return nil, "", &ErrValidation{Field: cvFormField, Message: "a CV file is required"}
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// handleListPersonas returns the caller's personas
func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	personas, err := s.personas.List(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("case") != "camel" {
		s.jsonResponse(w, http.StatusOK, personas)
		return
	}
	bodies := make([]any, 0, len(personas))
	for i := range personas {
		body, err := personaBody(r, &personas[i])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		bodies = append(bodies, body)
	}
	s.jsonResponse(w, http.StatusOK, bodies)
}

// handleCreatePersona creates a persona from a JSON payload
func (s *Server) handleCreatePersona(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	in, err := s.decodePersonaInput(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.personas.Create(r.Context(), userID, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePersona(w, r, http.StatusCreated, p)
}

// handleGetPersona returns one persona
func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.userAndPersonaID(w, r)
	if !ok {
		return
	}
	p, err := s.personas.Get(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePersona(w, r, http.StatusOK, p)
}

// handleUpdatePersona applies a partial update
func (s *Server) handleUpdatePersona(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.userAndPersonaID(w, r)
	if !ok {
		return
	}
	in, err := s.decodePersonaInput(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.personas.Update(r.Context(), userID, id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePersona(w, r, http.StatusOK, p)
}

// handleDeletePersona deletes a persona and its stored CV
func (s *Server) handleDeletePersona(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.userAndPersonaID(w, r)
	if !ok {
		return
	}
	if err := s.personas.Delete(r.Context(), userID, id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Persona deleted successfully"})
}

// handleActivatePersona makes a persona the caller's active one
func (s *Server) handleActivatePersona(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.userAndPersonaID(w, r)
	if !ok {
		return
	}
	p, err := s.personas.Activate(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePersona(w, r, http.StatusOK, p)
}

// handleParseCV extracts a profile from an uploaded CV without saving it
func (s *Server) handleParseCV(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	profile, err := s.personas.ParseCV(r.Context(), data, filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleParseText extracts a profile from pasted CV text without saving it
func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request) {
	var req types.ParseTextRequest
	if err := decodeJSONBody(w, r, s.maxUploadBytes, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, validationError(err))
		return
	}
	profile, err := s.personas.ParseText(r.Context(), req.CVText)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleCreateFromCV extracts a profile, saves it as a persona and stores
// the CV file
func (s *Server) handleCreateFromCV(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.personas.CreateFromCV(r.Context(), userID, data, filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body, err := personaBody(r, result.Persona)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := fromCVResponse{Persona: body}
	if result.UploadError != nil {
		msg := "CV file could not be stored"
		resp.UploadError = &msg
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}
