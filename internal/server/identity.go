package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/monu322/ai-job-applier-app/internal/types"
)

// IdentityProvider registers, authenticates and looks up users.
type IdentityProvider interface {
	SignUp(ctx context.Context, req *types.RegisterRequest) (*types.Session, error)
	SignIn(ctx context.Context, req *types.LoginRequest) (*types.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*types.User, error)
}

// GoTrueProvider passes authentication through to a Supabase GoTrue server.
type GoTrueProvider struct {
	baseURL string
	anonKey string
	client  *http.Client
}

var _ IdentityProvider = (*GoTrueProvider)(nil)

// NewGoTrueProvider creates a provider for the Supabase project at
// supabaseURL. A nil client uses a client with a 15 second timeout.
func NewGoTrueProvider(supabaseURL, anonKey string, client *http.Client) *GoTrueProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoTrueProvider{
		baseURL: strings.TrimRight(supabaseURL, "/") + "/auth/v1",
		anonKey: anonKey,
		client:  client,
	}
}

type goTrueUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *goTrueUser) toUser() *types.User {
	return &types.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// goTrueSession is the body of signup and token responses. Signup returns
// a bare user when email confirmation is enabled.
type goTrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         *goTrueUser `json:"user"`
	goTrueUser
}

func (s *goTrueSession) toSession() *types.Session {
	user := s.User
	if user == nil {
		user = &s.goTrueUser
	}
	session := &types.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.ExpiresIn,
		User:         user.toUser(),
	}
	if session.AccessToken != "" && session.ExpiresIn == 0 {
		session.ExpiresIn = 3600
	}
	return session
}

// goTrueError covers the error shapes GoTrue has used across versions.
type goTrueError struct {
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *goTrueError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignUp creates a GoTrue user.
func (p *GoTrueProvider) SignUp(ctx context.Context, req *types.RegisterRequest) (*types.Session, error) {
	body := map[string]any{"email": req.Email, "password": req.Password}
	if req.Name != "" {
		body["data"] = map[string]string{"name": req.Name}
	}

	var session goTrueSession
	status, apiErr, err := p.do(ctx, http.MethodPost, "/signup", "", body, &session)
	if err != nil {
		return nil, err
	}
	switch {
	case status < http.StatusBadRequest:
		return session.toSession(), nil
	case strings.Contains(strings.ToLower(apiErr.text()), "already registered"), apiErr.ErrorCode == "user_already_exists":
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return nil, &ErrValidation{Message: apiErr.text()}
	default:
		return nil, &ErrIdentityUnavailable{Cause: fmt.Errorf("signup returned %d: %s", status, apiErr.text())}
	}
}

// SignIn exchanges email and password for a session.
func (p *GoTrueProvider) SignIn(ctx context.Context, req *types.LoginRequest) (*types.Session, error) {
	var session goTrueSession
	status, apiErr, err := p.do(ctx, http.MethodPost, "/token?grant_type=password", "",
		map[string]string{"email": req.Email, "password": req.Password}, &session)
	if err != nil {
		return nil, err
	}
	switch {
	case status < http.StatusBadRequest:
		return session.toSession(), nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return nil, &ErrInvalidCredentials{}
	default:
		return nil, &ErrIdentityUnavailable{Cause: fmt.Errorf("token returned %d: %s", status, apiErr.text())}
	}
}

// SignOut revokes the session's refresh tokens.
func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	status, apiErr, err := p.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
	if err != nil {
		return err
	}
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ErrUnauthorized{Reason: apiErr.text()}
	default:
		return &ErrIdentityUnavailable{Cause: fmt.Errorf("logout returned %d: %s", status, apiErr.text())}
	}
}

// GetUser returns the user the access token belongs to.
func (p *GoTrueProvider) GetUser(ctx context.Context, accessToken string) (*types.User, error) {
	var user goTrueUser
	status, apiErr, err := p.do(ctx, http.MethodGet, "/user", accessToken, nil, &user)
	if err != nil {
		return nil, err
	}
	switch {
	case status < http.StatusBadRequest:
		return user.toUser(), nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound:
		return nil, &ErrUnauthorized{Reason: apiErr.text()}
	default:
		return nil, &ErrIdentityUnavailable{Cause: fmt.Errorf("user returned %d: %s", status, apiErr.text())}
	}
}

// do sends a request and decodes a 2xx body into out or an error body into
// the returned goTrueError. Transport failures are ErrIdentityUnavailable.
func (p *GoTrueProvider) do(ctx context.Context, method, path, accessToken string, body, out any) (int, *goTrueError, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, &ErrIdentityUnavailable{Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, &ErrIdentityUnavailable{Cause: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &goTrueError{}
		_ = json.Unmarshal(data, apiErr)
		if apiErr.text() == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, apiErr, nil
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return 0, nil, &ErrIdentityUnavailable{Cause: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return resp.StatusCode, nil, nil
}
