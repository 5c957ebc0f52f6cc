package teamService

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/modportal/internal/events"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/middleware"
	teammodels "github.com/nikhil/modportal/internal/models/teams"
	usermodels "github.com/nikhil/modportal/internal/models/users"
	"github.com/nikhil/modportal/internal/reconcile"
	"github.com/nikhil/modportal/internal/store"
	"github.com/nikhil/modportal/internal/teamtree"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) ListTeams(ctx context.Context) ([]teammodels.Team, error) {
	args := m.Called()
	return args.Get(0).([]teammodels.Team), args.Error(1)
}

func (m *mockStore) ListEdges(ctx context.Context) ([]teammodels.Edge, error) {
	args := m.Called()
	return args.Get(0).([]teammodels.Edge), args.Error(1)
}

func (m *mockStore) ListMemberships(ctx context.Context) ([]teammodels.Membership, error) {
	args := m.Called()
	return args.Get(0).([]teammodels.Membership), args.Error(1)
}

func (m *mockStore) ListUsers(ctx context.Context) ([]usermodels.User, error) {
	args := m.Called()
	return args.Get(0).([]usermodels.User), args.Error(1)
}

func (m *mockStore) GetTeam(ctx context.Context, id string) (teammodels.Team, error) {
	args := m.Called(id)
	return args.Get(0).(teammodels.Team), args.Error(1)
}

func (m *mockStore) CreateTeam(ctx context.Context, name string, firmID *string) (teammodels.Team, error) {
	args := m.Called(name)
	return args.Get(0).(teammodels.Team), args.Error(1)
}

func (m *mockStore) RenameTeam(ctx context.Context, id, name string) error {
	return m.Called(id, name).Error(0)
}

func (m *mockStore) UsersExist(ctx context.Context, ids []string) (bool, error) {
	args := m.Called(ids)
	return args.Bool(0), args.Error(1)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Reconcile(ctx context.Context, rel store.Relation, ownerID string, desired []string) (reconcile.Diff, error) {
	args := m.Called(rel, ownerID, desired)
	return args.Get(0).(reconcile.Diff), args.Error(1)
}

func (m *mockGateway) SetParent(ctx context.Context, childID string, parentID *string) error {
	return m.Called(childID, parentID).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(evt events.Event) {
	m.Called(evt)
}

func newService() (*TeamService, *mockStore, *mockGateway, *mockPublisher) {
	st, gw, pub := &mockStore{}, &mockGateway{}, &mockPublisher{}
	ts := &TeamService{Store: st, Gateway: gw, Events: pub, Log: logger.Nop()}
	return ts, st, gw, pub
}

func strPtr(s string) *string { return &s }

func asUser(id string) context.Context {
	return middleware.ContextWithSession(context.Background(), &middleware.Session{UserID: id})
}

func TestSnapshot(t *testing.T) {
	ts, st, _, _ := newService()
	st.On("ListTeams").Return([]teammodels.Team{
		{ID: "b", Name: "Ops"},
		{ID: "a", Name: "Finance"},
		{ID: "c", Name: "Sub"},
	}, nil)
	st.On("ListEdges").Return([]teammodels.Edge{{ChildID: "c", ParentID: strPtr("a")}}, nil)
	st.On("ListMemberships").Return([]teammodels.Membership{{TeamID: "c", UserID: "u1"}, {TeamID: "c", UserID: "ghost"}}, nil)
	st.On("ListUsers").Return([]usermodels.User{
		{ID: "u1", Email: "zed@mod.example", Name: "Zed"},
		{ID: "u2", Email: "amy@mod.example"},
	}, nil)

	snap, err := ts.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Forest, 2)
	assert.Equal(t, "Finance", snap.Forest[0].Name)
	assert.Equal(t, "Ops", snap.Forest[1].Name)
	require.Len(t, snap.Forest[0].Children, 1)
	sub := snap.Forest[0].Children[0]
	assert.Equal(t, "Sub", sub.Name)
	require.Len(t, sub.Members, 1)
	assert.Equal(t, "u1", sub.Members[0].ID)
	assert.Equal(t, 3, snap.Count)

	assert.Equal(t, []teammodels.Option{{ID: "a", Label: "Finance"}, {ID: "b", Label: "Ops"}, {ID: "c", Label: "Sub"}}, snap.Teams)
	assert.Equal(t, []teammodels.Option{{ID: "u1", Label: "Zed"}, {ID: "u2", Label: "amy@mod.example"}}, snap.Users)
}

func TestSnapshotFailure(t *testing.T) {
	ts, st, _, _ := newService()
	boom := errors.New("connection refused")
	st.On("ListTeams").Return([]teammodels.Team(nil), nil)
	st.On("ListEdges").Return([]teammodels.Edge(nil), boom)
	st.On("ListMemberships").Return([]teammodels.Membership(nil), nil)
	st.On("ListUsers").Return([]usermodels.User(nil), nil)

	_, err := ts.Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCreateTeamWithParent(t *testing.T) {
	ts, st, gw, pub := newService()
	st.On("GetTeam", "a").Return(teammodels.Team{ID: "a", Name: "Finance"}, nil)
	st.On("CreateTeam", "Treasury").Return(teammodels.Team{ID: "n", Name: "Treasury"}, nil)
	gw.On("SetParent", "n", strPtr("a")).Return(nil)
	pub.On("Publish", events.Event{Type: events.TeamsChanged, ID: "n", Actor: "u9"}).Return()

	team, err := ts.CreateTeam(asUser("u9"), "Treasury", strPtr("a"))
	require.NoError(t, err)
	assert.Equal(t, "n", team.ID)

	st.AssertExpectations(t)
	gw.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateTeamUnknownParent(t *testing.T) {
	ts, st, _, _ := newService()
	st.On("GetTeam", "missing").Return(teammodels.Team{}, store.ErrNotFound)

	_, err := ts.CreateTeam(context.Background(), "Treasury", strPtr("missing"))
	assert.ErrorIs(t, err, ErrParentNotFound)
	st.AssertNotCalled(t, "CreateTeam", mock.Anything)
}

func TestCreateTeamLinkFailureKeepsTeam(t *testing.T) {
	ts, st, gw, pub := newService()
	boom := errors.New("insert failed")
	pub.On("Publish", mock.MatchedBy(func(e events.Event) bool { return e.ID == "n" })).Return().Once()
	st.On("GetTeam", "a").Return(teammodels.Team{ID: "a"}, nil)
	st.On("CreateTeam", "Treasury").Return(teammodels.Team{ID: "n", Name: "Treasury"}, nil)
	gw.On("SetParent", "n", strPtr("a")).Return(boom)

	team, err := ts.CreateTeam(context.Background(), "Treasury", strPtr("a"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "n", team.ID)
	pub.AssertExpectations(t)
}

func TestRenameTeam(t *testing.T) {
	ts, st, _, pub := newService()
	st.On("RenameTeam", "a", "Treasury").Return(nil)
	st.On("RenameTeam", "x", "Treasury").Return(store.ErrNotFound)
	pub.On("Publish", mock.MatchedBy(func(e events.Event) bool { return e.ID == "a" })).Return().Once()

	require.NoError(t, ts.RenameTeam(context.Background(), "a", "Treasury"))
	assert.ErrorIs(t, ts.RenameTeam(context.Background(), "x", "Treasury"), store.ErrNotFound)
	pub.AssertExpectations(t)
}

func TestSetParentRejectsCycles(t *testing.T) {
	// a <- b <- c
	edges := []teammodels.Edge{
		{ChildID: "b", ParentID: strPtr("a")},
		{ChildID: "c", ParentID: strPtr("b")},
	}

	cases := []struct {
		name   string
		child  string
		parent string
	}{
		{"self", "a", "a"},
		{"direct child", "a", "b"},
		{"grandchild", "a", "c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, st, gw, _ := newService()
			st.On("GetTeam", mock.Anything).Return(teammodels.Team{ID: "any"}, nil)
			st.On("ListEdges").Return(edges, nil)

			err := ts.SetParent(context.Background(), tc.child, strPtr(tc.parent))
			assert.ErrorIs(t, err, teamtree.ErrCycle)
			gw.AssertNotCalled(t, "SetParent", mock.Anything, mock.Anything)
		})
	}
}

func TestSetParent(t *testing.T) {
	ts, st, gw, pub := newService()
	st.On("GetTeam", mock.Anything).Return(teammodels.Team{ID: "any"}, nil)
	st.On("ListEdges").Return([]teammodels.Edge{{ChildID: "b", ParentID: strPtr("a")}}, nil)
	gw.On("SetParent", "c", strPtr("b")).Return(nil)
	gw.On("SetParent", "c", (*string)(nil)).Return(nil)
	pub.On("Publish", mock.Anything).Return()

	require.NoError(t, ts.SetParent(context.Background(), "c", strPtr("b")))
	require.NoError(t, ts.SetParent(context.Background(), "c", nil))

	gw.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestSetParentMissingTeams(t *testing.T) {
	ts, st, _, _ := newService()
	st.On("GetTeam", "gone").Return(teammodels.Team{}, store.ErrNotFound)
	st.On("GetTeam", "c").Return(teammodels.Team{ID: "c"}, nil)

	assert.ErrorIs(t, ts.SetParent(context.Background(), "gone", nil), store.ErrNotFound)
	assert.ErrorIs(t, ts.SetParent(context.Background(), "c", strPtr("gone")), ErrParentNotFound)
}

func TestSetMembers(t *testing.T) {
	ts, st, gw, pub := newService()
	diff := reconcile.Diff{ToAdd: []string{"u4"}, ToRemove: []string{"u1", "u3"}}
	st.On("GetTeam", "t1").Return(teammodels.Team{ID: "t1"}, nil)
	st.On("UsersExist", []string{"u2", "u4"}).Return(true, nil)
	gw.On("Reconcile", store.TeamMembers, "t1", []string{"u2", "u4"}).Return(diff, nil)
	pub.On("Publish", mock.Anything).Return()

	got, err := ts.SetMembers(context.Background(), "t1", []string{"u2", "u4"})
	require.NoError(t, err)
	assert.Equal(t, diff, got)
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestSetMembersNoChangeIsQuiet(t *testing.T) {
	ts, st, gw, pub := newService()
	st.On("GetTeam", "t1").Return(teammodels.Team{ID: "t1"}, nil)
	st.On("UsersExist", []string{"u2"}).Return(true, nil)
	gw.On("Reconcile", store.TeamMembers, "t1", []string{"u2"}).Return(reconcile.Diff{ToAdd: []string{}, ToRemove: []string{}}, nil)

	got, err := ts.SetMembers(context.Background(), "t1", []string{"u2"})
	require.NoError(t, err)
	assert.True(t, got.Empty())
	pub.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestSetMembersUnknownUser(t *testing.T) {
	ts, st, gw, _ := newService()
	st.On("GetTeam", "t1").Return(teammodels.Team{ID: "t1"}, nil)
	st.On("UsersExist", []string{"ghost"}).Return(false, nil)

	_, err := ts.SetMembers(context.Background(), "t1", []string{"ghost"})
	assert.ErrorIs(t, err, ErrUnknownUser)
	gw.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
}
