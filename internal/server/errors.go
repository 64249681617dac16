package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/ingestion"
	"github.com/monu322/ai-job-applier-app/internal/parsing"
	"github.com/monu322/ai-job-applier-app/internal/persona"
	"github.com/monu322/ai-job-applier-app/internal/pipeline"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUnauthorized indicates a missing, invalid or expired access token
type ErrUnauthorized struct {
	Reason string
}

func (e *ErrUnauthorized) Error() string {
	if e.Reason == "" {
		return "could not validate credentials"
	}
	return "could not validate credentials: " + e.Reason
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrIdentityUnavailable wraps a failure to reach the identity provider
type ErrIdentityUnavailable struct {
	Cause error
}

func (e *ErrIdentityUnavailable) Error() string {
	return fmt.Sprintf("identity provider unavailable: %v", e.Cause)
}

func (e *ErrIdentityUnavailable) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		unsupported   *ingestion.UnsupportedFormatError
		unreadable    *ingestion.UnreadableDocumentError
		tooLarge      *pipeline.PayloadTooLargeError
		bodyTooLarge  *http.MaxBytesError
		unavailable   *pipeline.CompletionUnavailableError
		malformed     *parsing.MalformedResponseError
		incomplete    *parsing.IncompleteExtractionError
		salaryRange   *persona.InvalidSalaryRangeError
		invalidInput  *persona.ValidationError
		validation    *ErrValidation
		emailExists   *ErrEmailAlreadyExists
		badLogin      *ErrInvalidCredentials
		unauthorized  *ErrUnauthorized
		identityIsOut *ErrIdentityUnavailable
	)

	switch {
	case errors.As(err, &unsupported), errors.As(err, &validation), errors.As(err, &invalidInput):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge), errors.As(err, &bodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &unreadable), errors.As(err, &incomplete), errors.As(err, &salaryRange):
		return http.StatusUnprocessableEntity
	case errors.As(err, &malformed):
		return http.StatusBadGateway
	case errors.As(err, &unavailable), errors.As(err, &identityIsOut):
		return http.StatusServiceUnavailable
	case errors.As(err, &badLogin), errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &emailExists), errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
