package userService

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/modportal/internal/events"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/store"
	"github.com/nikhil/modportal/internal/store/storetest"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(evt events.Event) {
	m.Called(evt)
}

func newService(t *testing.T) (*UserService, *store.Store, *store.Gateway, *mockPublisher) {
	t.Helper()
	db := storetest.Open(t)
	db.MustExec(`INSERT INTO roles (id, name) VALUES ('r1', 'Viewer'), ('r2', 'Admin')`)
	db.MustExec(`INSERT INTO teams (id, name) VALUES ('t1', 'Ops'), ('t2', 'Finance')`)

	st, gw, pub := store.New(db), store.NewGateway(db), &mockPublisher{}
	pub.On("Publish", mock.Anything).Return()
	return &UserService{Store: st, Gateway: gw, Events: pub, Log: logger.Nop()}, st, gw, pub
}

func TestCreateUserWithRolesAndTeams(t *testing.T) {
	ctx := context.Background()
	us, _, gw, pub := newService(t)

	u, err := us.CreateUser(ctx, CreateUserRequest{
		Email:   "ana@mod.example",
		Name:    "Ana",
		RoleIDs: []string{"r1"},
		TeamIDs: []string{"t1", "t2"},
	})
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	roles, err := gw.Members(ctx, store.UserRoles, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, roles)

	rows, err := us.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	require.NotNil(t, row.Name)
	assert.Equal(t, "Ana", *row.Name)
	assert.Equal(t, []string{"Viewer"}, row.Roles)
	assert.Equal(t, []string{"r1"}, row.RoleIDs)
	assert.Equal(t, []string{"Finance", "Ops"}, row.Teams)
	assert.Equal(t, []string{"t2", "t1"}, row.TeamIDs)
	assert.NotEmpty(t, row.CreatedAtLabel)

	pub.AssertCalled(t, "Publish", mock.MatchedBy(func(e events.Event) bool { return e.Type == events.UsersChanged && e.ID == u.ID }))
	pub.AssertCalled(t, "Publish", mock.MatchedBy(func(e events.Event) bool { return e.Type == events.TeamsChanged }))
}

func TestCreateUserRejectsUnknownReferences(t *testing.T) {
	ctx := context.Background()
	us, st, _, _ := newService(t)

	_, err := us.CreateUser(ctx, CreateUserRequest{Email: "ana@mod.example", RoleIDs: []string{"nope"}})
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = us.CreateUser(ctx, CreateUserRequest{Email: "ana@mod.example", TeamIDs: []string{"nope"}})
	assert.ErrorIs(t, err, ErrUnknownTeam)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateUserInvalid(t *testing.T) {
	us, _, _, _ := newService(t)

	_, err := us.CreateUser(context.Background(), CreateUserRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestUpdateUserReconcilesRolesAndTeams(t *testing.T) {
	ctx := context.Background()
	us, st, gw, _ := newService(t)

	inactive, active := false, true
	u, err := us.CreateUser(ctx, CreateUserRequest{
		Email:    "ana@mod.example",
		IsActive: &inactive,
		RoleIDs:  []string{"r1"},
		TeamIDs:  []string{"t1"},
	})
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	err = us.UpdateUser(ctx, u.ID, UpdateUserRequest{
		Name:     "Ana Lee",
		IsActive: &active,
		RoleIDs:  []string{"r2"},
		TeamIDs:  []string{"t1", "t2"},
	})
	require.NoError(t, err)

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lee", got.Name)
	assert.True(t, got.IsActive)

	roles, err := gw.Members(ctx, store.UserRoles, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, roles)

	teams, err := gw.Members(ctx, store.UserTeams, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2"}, teams)

	assert.ErrorIs(t, us.UpdateUser(ctx, "missing", UpdateUserRequest{IsActive: &active}), store.ErrNotFound)
}

func TestUpdateUserRequiresStatus(t *testing.T) {
	ctx := context.Background()
	us, st, _, _ := newService(t)

	u, err := us.CreateUser(ctx, CreateUserRequest{Email: "ana@mod.example"})
	require.NoError(t, err)

	err = us.UpdateUser(ctx, u.ID, UpdateUserRequest{Name: "Ana Lee"})
	assert.ErrorIs(t, err, store.ErrInvalid)

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, "", got.Name)
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	us, st, _, _ := newService(t)

	u, err := us.CreateUser(ctx, CreateUserRequest{Email: "ana@mod.example"})
	require.NoError(t, err)

	require.NoError(t, us.SetActive(ctx, u.ID, false))
	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, us.SetActive(ctx, "missing", true), store.ErrNotFound)
}

func TestRowsWithoutName(t *testing.T) {
	ctx := context.Background()
	us, _, _, _ := newService(t)

	_, err := us.CreateUser(ctx, CreateUserRequest{Email: "ana@mod.example"})
	require.NoError(t, err)

	rows, err := us.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Name)
	assert.Equal(t, []string{}, rows[0].Roles)
	assert.Equal(t, []string{}, rows[0].TeamIDs)

	roles, err := us.Roles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}
