package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/monu322/ai-job-applier-app/internal/config"
	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/types"
)

// UserStore is the user persistence the local provider needs. *db.DB
// implements it.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
}

var _ UserStore = (*db.DB)(nil)

// LocalProvider keeps users in the database and issues its own tokens.
// It serves self-hosted and development deployments without Supabase.
type LocalProvider struct {
	users    UserStore
	password config.PasswordConfig
	jwt      *JWTService
}

var _ IdentityProvider = (*LocalProvider)(nil)

// NewLocalProvider creates a LocalProvider.
func NewLocalProvider(users UserStore, password config.PasswordConfig, jwtService *JWTService) *LocalProvider {
	return &LocalProvider{
		users:    users,
		password: password,
		jwt:      jwtService,
	}
}

// convertDBUser converts db.User to types.User, excluding password hash
func convertDBUser(u *db.User) *types.User {
	return &types.User{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (p *LocalProvider) session(u *db.User) (*types.Session, error) {
	token, err := p.jwt.GenerateToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &types.Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(p.jwt.TTL().Seconds()),
		User:        convertDBUser(u),
	}, nil
}

// SignUp creates a user with a hashed password and signs them in.
func (p *LocalProvider) SignUp(ctx context.Context, req *types.RegisterRequest) (*types.Session, error) {
	passwordHash, err := p.password.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, config.ErrPasswordTooLong) {
			return nil, &ErrValidation{Field: "password", Message: err.Error()}
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := p.users.CreateUser(ctx, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, &ErrEmailAlreadyExists{Email: req.Email}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return p.session(user)
}

// SignIn verifies the password and issues a token. Unknown emails and
// wrong passwords produce the same error.
func (p *LocalProvider) SignIn(ctx context.Context, req *types.LoginRequest) (*types.Session, error) {
	user, err := p.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &ErrInvalidCredentials{}
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if !p.password.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	return p.session(user)
}

// SignOut is a no-op: local tokens are stateless and expire on their own.
func (p *LocalProvider) SignOut(context.Context, string) error {
	return nil
}

// GetUser returns the user named by the token's subject.
func (p *LocalProvider) GetUser(ctx context.Context, accessToken string) (*types.User, error) {
	claims, err := p.jwt.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := p.users.GetUser(ctx, claims.GetUserID())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &ErrUnauthorized{Reason: "user no longer exists"}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return convertDBUser(user), nil
}
