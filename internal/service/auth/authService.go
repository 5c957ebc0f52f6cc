package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nikhil/modportal/internal/identity"
	"github.com/nikhil/modportal/internal/logger"
)

var ErrMissingCredentials = errors.New("email and password are required")

// Identity is the hosted identity provider.
type Identity interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	ExchangeCodeForSession(ctx context.Context, code, verifier string) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*identity.User, error)
}

type AuthService struct {
	Identity Identity
	Log      *logger.Logger
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(id Identity) *AuthService {
	return &AuthService{
		Identity: id,
		Log:      logger.NewLogger("auth-service"),
	}
}

// Login authenticates staff credentials against the identity provider.
func (s *AuthService) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	log := s.Log.WithContext(ctx)
	session, err := s.Identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		log.Warn("Sign in failed", "email", email, "error", err)
		return nil, err
	}

	log.WithUser(session.User.ID).Audit("Signed in")
	return session, nil
}

// Callback completes a browser sign-in that returned with an auth code.
func (s *AuthService) Callback(ctx context.Context, code, verifier string) (*identity.Session, error) {
	if code == "" {
		return nil, identity.ErrInvalidCredentials
	}

	session, err := s.Identity.ExchangeCodeForSession(ctx, code, verifier)
	if err != nil {
		s.Log.WithContext(ctx).Warn("Code exchange failed", "error", err)
		return nil, err
	}

	s.Log.WithContext(ctx).WithUser(session.User.ID).Audit("Signed in via callback")
	return session, nil
}

// CurrentUser asks the provider who owns accessToken. A token the provider
// no longer accepts yields identity.ErrInvalidCredentials.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*identity.User, error) {
	if accessToken == "" {
		return nil, identity.ErrInvalidCredentials
	}
	u, err := s.Identity.GetUser(ctx, accessToken)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidCredentials) {
			s.Log.WithContext(ctx).Error("Failed to fetch current user", "error", err)
		}
		return nil, err
	}
	return u, nil
}

// SignOut revokes the session at the provider. A token the provider already
// considers invalid counts as signed out.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	err := s.Identity.SignOut(ctx, accessToken)
	if err != nil && !errors.Is(err, identity.ErrInvalidCredentials) {
		s.Log.WithContext(ctx).Error("Sign out failed", "error", err)
		return err
	}
	return nil
}
