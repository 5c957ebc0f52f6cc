package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	usermodels "github.com/nikhil/modportal/internal/models/users"
)

// Assignment is a join row resolved to the name of the joined entity, for
// example a user's role or a user's team.
type Assignment struct {
	OwnerID string `db:"owner_id"`
	ID      string `db:"id"`
	Name    string `db:"name"`
}

const userColumns = `id, email, COALESCE(display_name, '') AS display_name, avatar_url, is_active, created_at`

func (s *Store) ListUsers(ctx context.Context) ([]usermodels.User, error) {
	users := []usermodels.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY email ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (usermodels.User, error) {
	var u usermodels.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return usermodels.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]usermodels.Role, error) {
	roles := []usermodels.Role{}
	if err := s.db.SelectContext(ctx, &roles, `SELECT id, name FROM roles ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	return roles, nil
}

// RoleAssignments lists every user's roles ordered by role name.
func (s *Store) RoleAssignments(ctx context.Context) ([]Assignment, error) {
	rows := []Assignment{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ur.user_id AS owner_id, r.id AS id, r.name AS name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		ORDER BY r.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	return rows, nil
}

// TeamAssignments lists every user's teams ordered by team name.
func (s *Store) TeamAssignments(ctx context.Context) ([]Assignment, error) {
	rows := []Assignment{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT tm.user_id AS owner_id, t.id AS id, t.name AS name
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		ORDER BY t.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user teams: %w", err)
	}
	return rows, nil
}

// RolesExist reports whether every id names a stored role.
func (s *Store) RolesExist(ctx context.Context, ids []string) (bool, error) {
	return s.allExist(ctx, `SELECT id FROM roles WHERE id IN (?)`, ids)
}

// TeamsExist reports whether every id names a stored team.
func (s *Store) TeamsExist(ctx context.Context, ids []string) (bool, error) {
	return s.allExist(ctx, `SELECT id FROM teams WHERE id IN (?)`, ids)
}

// UsersExist reports whether every id names a stored user.
func (s *Store) UsersExist(ctx context.Context, ids []string) (bool, error) {
	return s.allExist(ctx, `SELECT id FROM users WHERE id IN (?)`, ids)
}

func (s *Store) allExist(ctx context.Context, query string, ids []string) (bool, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	if len(want) == 0 {
		return true, nil
	}

	found := []string{}
	if err := s.queryIn(ctx, &found, query, ids); err != nil {
		return false, fmt.Errorf("failed to look up ids: %w", err)
	}
	return len(found) == len(want), nil
}

// CreateUser inserts a user row. An empty name is stored as NULL.
func (s *Store) CreateUser(ctx context.Context, email, name string, active bool) (usermodels.User, error) {
	now := s.timestamp()
	u := usermodels.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		IsActive:  active,
		CreatedAt: &now,
	}
	if err := s.check(u); err != nil {
		return usermodels.User{}, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, nullable(u.Name), u.IsActive, u.CreatedAt)
	if err != nil {
		return usermodels.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// UpdateUser sets the display name and active flag of a user.
func (s *Store) UpdateUser(ctx context.Context, id, name string, active bool) error {
	update := struct {
		ID   string `json:"id" validate:"required"`
		Name string `json:"name" validate:"max=200"`
	}{ID: id, Name: name}
	if err := s.check(update); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET display_name = ?, is_active = ? WHERE id = ?`, nullable(name), active, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return requireAffected(res)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
