package userService

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nikhil/modportal/internal/events"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/middleware"
	usermodels "github.com/nikhil/modportal/internal/models/users"
	"github.com/nikhil/modportal/internal/reconcile"
	"github.com/nikhil/modportal/internal/store"
)

var (
	ErrUnknownRole = errors.New("unknown role")
	ErrUnknownTeam = errors.New("unknown team")

	// ErrMissingStatus matches store.ErrInvalid.
	ErrMissingStatus = fmt.Errorf("%w: is_active is required", store.ErrInvalid)
)

// CreatedLabelLayout renders creation dates in the users table, always in UTC.
const CreatedLabelLayout = "Jan 2, 2006"

type Store interface {
	ListUsers(ctx context.Context) ([]usermodels.User, error)
	ListRoles(ctx context.Context) ([]usermodels.Role, error)
	RoleAssignments(ctx context.Context) ([]store.Assignment, error)
	TeamAssignments(ctx context.Context) ([]store.Assignment, error)
	RolesExist(ctx context.Context, ids []string) (bool, error)
	TeamsExist(ctx context.Context, ids []string) (bool, error)
	CreateUser(ctx context.Context, email, name string, active bool) (usermodels.User, error)
	UpdateUser(ctx context.Context, id, name string, active bool) error
	SetUserActive(ctx context.Context, id string, active bool) error
}

type Gateway interface {
	Reconcile(ctx context.Context, rel store.Relation, ownerID string, desired []string) (reconcile.Diff, error)
}

type UserService struct {
	Store   Store
	Gateway Gateway
	Events  events.Publisher
	Log     *logger.Logger
}

// CreateUserRequest is the body of a user creation.
type CreateUserRequest struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	IsActive *bool    `json:"is_active"`
	RoleIDs  []string `json:"role_ids"`
	TeamIDs  []string `json:"team_ids"`
}

// UpdateUserRequest replaces a user's name, status, roles and teams.
type UpdateUserRequest struct {
	Name     string   `json:"name"`
	IsActive *bool    `json:"is_active"`
	RoleIDs  []string `json:"role_ids"`
	TeamIDs  []string `json:"team_ids"`
}

func NewUserService(st Store, gw Gateway, pub events.Publisher) *UserService {
	return &UserService{
		Store:   st,
		Gateway: gw,
		Events:  pub,
		Log:     logger.NewLogger("user-service"),
	}
}

// Rows returns every user with role and team names resolved.
func (us *UserService) Rows(ctx context.Context) ([]usermodels.Row, error) {
	var (
		users []usermodels.User
		roles []store.Assignment
		teams []store.Assignment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = us.Store.ListUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		roles, err = us.Store.RoleAssignments(gctx)
		return err
	})
	g.Go(func() (err error) {
		teams, err = us.Store.TeamAssignments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rolesByUser := groupAssignments(roles)
	teamsByUser := groupAssignments(teams)

	rows := make([]usermodels.Row, 0, len(users))
	for _, u := range users {
		row := usermodels.Row{
			ID:        u.ID,
			Email:     u.Email,
			IsActive:  u.IsActive,
			AvatarURL: u.AvatarURL,
			Roles:     []string{},
			RoleIDs:   []string{},
			Teams:     []string{},
			TeamIDs:   []string{},
			CreatedAt: u.CreatedAt,
		}
		if u.Name != "" {
			name := u.Name
			row.Name = &name
		}
		if u.CreatedAt != nil {
			row.CreatedAtLabel = u.CreatedAt.UTC().Format(CreatedLabelLayout)
		}
		for _, a := range rolesByUser[u.ID] {
			row.Roles = append(row.Roles, a.Name)
			row.RoleIDs = append(row.RoleIDs, a.ID)
		}
		for _, a := range teamsByUser[u.ID] {
			row.Teams = append(row.Teams, a.Name)
			row.TeamIDs = append(row.TeamIDs, a.ID)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (us *UserService) Roles(ctx context.Context) ([]usermodels.Role, error) {
	return us.Store.ListRoles(ctx)
}

// CreateUser inserts the user and then attaches its roles and teams. The
// attachments are separate writes and are not rolled back if one fails.
func (us *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (usermodels.User, error) {
	if err := us.checkReferences(ctx, req.RoleIDs, req.TeamIDs); err != nil {
		return usermodels.User{}, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	u, err := us.Store.CreateUser(ctx, req.Email, req.Name, active)
	if err != nil {
		return usermodels.User{}, err
	}
	us.logger(ctx).Audit("User created", "target_user_id", u.ID, "email", u.Email)

	if err := us.assign(ctx, u.ID, req.RoleIDs, req.TeamIDs); err != nil {
		return u, err
	}

	us.publish(ctx, events.UsersChanged, u.ID)
	return u, nil
}

// UpdateUser writes name and status and reconciles roles and teams against
// what is stored.
func (us *UserService) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) error {
	if req.IsActive == nil {
		return ErrMissingStatus
	}
	if err := us.checkReferences(ctx, req.RoleIDs, req.TeamIDs); err != nil {
		return err
	}

	if err := us.Store.UpdateUser(ctx, userID, req.Name, *req.IsActive); err != nil {
		return err
	}
	us.logger(ctx).Audit("User updated", "target_user_id", userID, "is_active", *req.IsActive)

	if err := us.assign(ctx, userID, req.RoleIDs, req.TeamIDs); err != nil {
		return err
	}

	us.publish(ctx, events.UsersChanged, userID)
	return nil
}

func (us *UserService) SetActive(ctx context.Context, userID string, active bool) error {
	if err := us.Store.SetUserActive(ctx, userID, active); err != nil {
		return err
	}
	us.logger(ctx).Audit("User status changed", "target_user_id", userID, "is_active", active)
	us.publish(ctx, events.UsersChanged, userID)
	return nil
}

func (us *UserService) assign(ctx context.Context, userID string, roleIDs, teamIDs []string) error {
	log := us.logger(ctx)

	roleDiff, err := us.Gateway.Reconcile(ctx, store.UserRoles, userID, roleIDs)
	if err != nil {
		return err
	}
	if !roleDiff.Empty() {
		log.Audit("User roles set", "target_user_id", userID, "added", roleDiff.ToAdd, "removed", roleDiff.ToRemove)
	}

	teamDiff, err := us.Gateway.Reconcile(ctx, store.UserTeams, userID, teamIDs)
	if err != nil {
		return err
	}
	if !teamDiff.Empty() {
		log.Audit("User teams set", "target_user_id", userID, "added", teamDiff.ToAdd, "removed", teamDiff.ToRemove)
		us.publish(ctx, events.TeamsChanged, "")
	}
	return nil
}

func (us *UserService) checkReferences(ctx context.Context, roleIDs, teamIDs []string) error {
	ok, err := us.Store.RolesExist(ctx, roleIDs)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownRole
	}

	ok, err = us.Store.TeamsExist(ctx, teamIDs)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownTeam
	}
	return nil
}

func groupAssignments(rows []store.Assignment) map[string][]store.Assignment {
	out := make(map[string][]store.Assignment)
	for _, a := range rows {
		out[a.OwnerID] = append(out[a.OwnerID], a)
	}
	return out
}

func (us *UserService) logger(ctx context.Context) *logger.Logger {
	return us.Log.WithContext(ctx).WithUser(middleware.ActorID(ctx))
}

func (us *UserService) publish(ctx context.Context, kind, id string) {
	us.Events.Publish(events.Event{Type: kind, ID: id, Actor: middleware.ActorID(ctx)})
}
