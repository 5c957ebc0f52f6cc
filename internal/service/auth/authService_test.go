package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/modportal/internal/identity"
	"github.com/nikhil/modportal/internal/logger"
)

type mockIdentity struct{ mock.Mock }

func (m *mockIdentity) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	args := m.Called(email, password)
	s, _ := args.Get(0).(*identity.Session)
	return s, args.Error(1)
}

func (m *mockIdentity) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*identity.Session, error) {
	args := m.Called(code, verifier)
	s, _ := args.Get(0).(*identity.Session)
	return s, args.Error(1)
}

func (m *mockIdentity) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(accessToken).Error(0)
}

func (m *mockIdentity) GetUser(ctx context.Context, accessToken string) (*identity.User, error) {
	args := m.Called(accessToken)
	u, _ := args.Get(0).(*identity.User)
	return u, args.Error(1)
}

func newService() (*AuthService, *mockIdentity) {
	id := &mockIdentity{}
	return &AuthService{Identity: id, Log: logger.Nop()}, id
}

func TestLogin(t *testing.T) {
	s, id := newService()
	want := &identity.Session{AccessToken: "tok", User: identity.User{ID: "u1"}}
	id.On("SignInWithPassword", "ana@mod.example", "secret").Return(want, nil)

	got, err := s.Login(context.Background(), " ana@mod.example ", "secret")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoginErrors(t *testing.T) {
	s, id := newService()
	id.On("SignInWithPassword", "ana@mod.example", "wrong").Return(nil, identity.ErrInvalidCredentials)

	_, err := s.Login(context.Background(), "", "secret")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = s.Login(context.Background(), "ana@mod.example", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestCallback(t *testing.T) {
	s, id := newService()
	id.On("ExchangeCodeForSession", "code", "verifier").Return(&identity.Session{AccessToken: "tok"}, nil)

	got, err := s.Callback(context.Background(), "code", "verifier")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.AccessToken)

	_, err = s.Callback(context.Background(), "", "verifier")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestSignOut(t *testing.T) {
	s, id := newService()
	id.On("SignOut", "expired").Return(identity.ErrInvalidCredentials)
	id.On("SignOut", "tok").Return(nil)
	boom := errors.New("provider down")
	id.On("SignOut", "down").Return(boom)

	assert.NoError(t, s.SignOut(context.Background(), ""))
	assert.NoError(t, s.SignOut(context.Background(), "tok"))
	assert.NoError(t, s.SignOut(context.Background(), "expired"))
	assert.ErrorIs(t, s.SignOut(context.Background(), "down"), boom)
	id.AssertNumberOfCalls(t, "SignOut", 3)
}

func TestCurrentUser(t *testing.T) {
	s, id := newService()
	id.On("GetUser", "tok").Return(&identity.User{ID: "u1", Email: "ana@mod.example"}, nil)
	id.On("GetUser", "stale").Return(nil, identity.ErrInvalidCredentials)

	u, err := s.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = s.CurrentUser(context.Background(), "stale")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = s.CurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	id.AssertNumberOfCalls(t, "GetUser", 2)
}
