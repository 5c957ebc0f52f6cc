package teamService

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nikhil/modportal/internal/events"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/middleware"
	teammodels "github.com/nikhil/modportal/internal/models/teams"
	usermodels "github.com/nikhil/modportal/internal/models/users"
	"github.com/nikhil/modportal/internal/reconcile"
	"github.com/nikhil/modportal/internal/store"
	"github.com/nikhil/modportal/internal/teamtree"
)

var (
	ErrParentNotFound = errors.New("parent team not found")
	ErrUnknownUser    = errors.New("unknown user")
)

// Store is the part of the entity store the team service reads and writes.
type Store interface {
	ListTeams(ctx context.Context) ([]teammodels.Team, error)
	ListEdges(ctx context.Context) ([]teammodels.Edge, error)
	ListMemberships(ctx context.Context) ([]teammodels.Membership, error)
	ListUsers(ctx context.Context) ([]usermodels.User, error)
	GetTeam(ctx context.Context, id string) (teammodels.Team, error)
	CreateTeam(ctx context.Context, name string, firmID *string) (teammodels.Team, error)
	RenameTeam(ctx context.Context, id, name string) error
	UsersExist(ctx context.Context, ids []string) (bool, error)
}

type Gateway interface {
	Reconcile(ctx context.Context, rel store.Relation, ownerID string, desired []string) (reconcile.Diff, error)
	SetParent(ctx context.Context, childID string, parentID *string) error
}

// TeamService handles team-related operations
type TeamService struct {
	Store   Store
	Gateway Gateway
	Events  events.Publisher
	Log     *logger.Logger
}

// Snapshot is everything the teams view renders.
type Snapshot struct {
	Forest []*teammodels.Node  `json:"forest"`
	Count  int                 `json:"count"`
	Teams  []teammodels.Option `json:"teams"`
	Users  []teammodels.Option `json:"users"`
}

// NewTeamService initializes a new team service
func NewTeamService(st Store, gw Gateway, pub events.Publisher) *TeamService {
	return &TeamService{
		Store:   st,
		Gateway: gw,
		Events:  pub,
		Log:     logger.NewLogger("team-service"),
	}
}

// Snapshot loads teams, edges, memberships and users concurrently and
// assembles the forest.
func (ts *TeamService) Snapshot(ctx context.Context) (*Snapshot, error) {
	var (
		teams       []teammodels.Team
		edges       []teammodels.Edge
		memberships []teammodels.Membership
		users       []usermodels.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		teams, err = ts.Store.ListTeams(gctx)
		return err
	})
	g.Go(func() (err error) {
		edges, err = ts.Store.ListEdges(gctx)
		return err
	})
	g.Go(func() (err error) {
		memberships, err = ts.Store.ListMemberships(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = ts.Store.ListUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	forest := teamtree.BuildForest(teams, edges, teamtree.MembersByTeam(memberships, users))

	teamOptions := make([]teammodels.Option, 0, len(teams))
	for _, t := range teams {
		teamOptions = append(teamOptions, teammodels.Option{ID: t.ID, Label: t.Name})
	}
	sort.SliceStable(teamOptions, func(i, j int) bool { return teamOptions[i].Label < teamOptions[j].Label })

	userOptions := make([]teammodels.Option, 0, len(users))
	for _, u := range users {
		userOptions = append(userOptions, teammodels.Option{ID: u.ID, Label: u.Label()})
	}
	sort.SliceStable(userOptions, func(i, j int) bool { return userOptions[i].Label < userOptions[j].Label })

	return &Snapshot{
		Forest: forest,
		Count:  teamtree.Count(forest),
		Teams:  teamOptions,
		Users:  userOptions,
	}, nil
}

// CreateTeam creates a team and, when parentID is set, links it under that
// parent. The link is a second write; if it fails the team stays as a root.
func (ts *TeamService) CreateTeam(ctx context.Context, name string, parentID *string) (teammodels.Team, error) {
	log := ts.logger(ctx)

	if parentID != nil {
		if err := ts.requireParent(ctx, *parentID); err != nil {
			return teammodels.Team{}, err
		}
	}

	team, err := ts.Store.CreateTeam(ctx, name, nil)
	if err != nil {
		return teammodels.Team{}, err
	}
	log.Audit("Team created", "team_id", team.ID, "name", team.Name)

	if parentID != nil {
		if err := ts.Gateway.SetParent(ctx, team.ID, parentID); err != nil {
			ts.publish(ctx, team.ID)
			return team, fmt.Errorf("team created but not linked to parent: %w", err)
		}
		log.Audit("Team parent set", "team_id", team.ID, "parent_id", *parentID)
	}

	ts.publish(ctx, team.ID)
	return team, nil
}

func (ts *TeamService) RenameTeam(ctx context.Context, teamID, name string) error {
	if err := ts.Store.RenameTeam(ctx, teamID, name); err != nil {
		return err
	}
	ts.logger(ctx).Audit("Team renamed", "team_id", teamID, "name", name)
	ts.publish(ctx, teamID)
	return nil
}

// SetParent moves a team under parentID, or makes it a root when parentID is
// nil. Assignments that would make a team its own ancestor are rejected.
func (ts *TeamService) SetParent(ctx context.Context, childID string, parentID *string) error {
	if _, err := ts.Store.GetTeam(ctx, childID); err != nil {
		return err
	}

	if parentID != nil {
		if *parentID == childID {
			return teamtree.ErrCycle
		}
		if err := ts.requireParent(ctx, *parentID); err != nil {
			return err
		}

		edges, err := ts.Store.ListEdges(ctx)
		if err != nil {
			return err
		}
		if teamtree.WouldCycle(edges, childID, *parentID) {
			return teamtree.ErrCycle
		}
	}

	if err := ts.Gateway.SetParent(ctx, childID, parentID); err != nil {
		return err
	}

	ts.logger(ctx).Audit("Team parent set", "team_id", childID, "parent_id", parentID)
	ts.publish(ctx, childID)
	return nil
}

// SetMembers replaces the team's membership with userIDs.
func (ts *TeamService) SetMembers(ctx context.Context, teamID string, userIDs []string) (reconcile.Diff, error) {
	if _, err := ts.Store.GetTeam(ctx, teamID); err != nil {
		return reconcile.Diff{}, err
	}

	ok, err := ts.Store.UsersExist(ctx, userIDs)
	if err != nil {
		return reconcile.Diff{}, err
	}
	if !ok {
		return reconcile.Diff{}, ErrUnknownUser
	}

	diff, err := ts.Gateway.Reconcile(ctx, store.TeamMembers, teamID, userIDs)
	if err != nil {
		return reconcile.Diff{}, err
	}
	if diff.Empty() {
		return diff, nil
	}

	ts.logger(ctx).Audit("Team members set", "team_id", teamID, "added", diff.ToAdd, "removed", diff.ToRemove)
	ts.publish(ctx, teamID)
	return diff, nil
}

func (ts *TeamService) requireParent(ctx context.Context, parentID string) error {
	if _, err := ts.Store.GetTeam(ctx, parentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrParentNotFound
		}
		return err
	}
	return nil
}

func (ts *TeamService) logger(ctx context.Context) *logger.Logger {
	return ts.Log.WithContext(ctx).WithUser(middleware.ActorID(ctx))
}

func (ts *TeamService) publish(ctx context.Context, teamID string) {
	ts.Events.Publish(events.Event{Type: events.TeamsChanged, ID: teamID, Actor: middleware.ActorID(ctx)})
}
