package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/monu322/ai-job-applier-app/internal/server/middleware"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// maxAuthBodyBytes bounds register and login bodies.
const maxAuthBodyBytes = 64 << 10

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	identity IdentityProvider
	logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(identity IdentityProvider, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		logger:   logger,
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeJSONBody(w, r, maxAuthBodyBytes, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, validationError(err), h.logger)
		return
	}

	session, err := h.identity.SignUp(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.logger.Info().Str("user_id", session.User.ID.String()).Msg("user registered")
	writeJSON(w, http.StatusCreated, session, h.logger)
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSONBody(w, r, maxAuthBodyBytes, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, validationError(err), h.logger)
		return
	}

	session, err := h.identity.SignIn(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, session, h.logger)
}

// Logout ends the caller's session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context(), middleware.GetAccessToken(r)); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"}, h.logger)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetUser(r.Context(), middleware.GetAccessToken(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user, h.logger)
}

// decodeJSONBody decodes a bounded JSON request body into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &ErrValidation{Message: "invalid request body"}
	}
	return nil
}

// validationError converts validator errors to an ErrValidation naming the
// first failing field.
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: fmt.Sprintf("failed on %q", ve.Tag())}
	}
	return &ErrValidation{Message: "invalid request"}
}
