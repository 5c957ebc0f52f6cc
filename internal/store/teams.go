package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	teammodels "github.com/nikhil/modportal/internal/models/teams"
)

func (s *Store) ListTeams(ctx context.Context) ([]teammodels.Team, error) {
	teams := []teammodels.Team{}
	err := s.db.SelectContext(ctx, &teams, `SELECT id, name, created_at, firm_id FROM teams ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	return teams, nil
}

func (s *Store) ListEdges(ctx context.Context) ([]teammodels.Edge, error) {
	edges := []teammodels.Edge{}
	err := s.db.SelectContext(ctx, &edges, `SELECT child_id, parent_id FROM team_hierarchy`)
	if err != nil {
		return nil, fmt.Errorf("failed to query team hierarchy: %w", err)
	}
	return edges, nil
}

func (s *Store) ListMemberships(ctx context.Context) ([]teammodels.Membership, error) {
	rows := []teammodels.Membership{}
	err := s.db.SelectContext(ctx, &rows, `SELECT team_id, user_id FROM team_members`)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	return rows, nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (teammodels.Team, error) {
	var t teammodels.Team
	err := s.db.GetContext(ctx, &t, `SELECT id, name, created_at, firm_id FROM teams WHERE id = ?`, id)
	if err != nil {
		return teammodels.Team{}, notFound(err)
	}
	return t, nil
}

// CreateTeam inserts a team and returns the stored row.
func (s *Store) CreateTeam(ctx context.Context, name string, firmID *string) (teammodels.Team, error) {
	now := s.timestamp()
	t := teammodels.Team{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: &now,
		FirmID:    firmID,
	}
	if err := s.check(t); err != nil {
		return teammodels.Team{}, err
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO teams (id, name, created_at, firm_id)
		VALUES (:id, :name, :created_at, :firm_id)
	`, t)
	if err != nil {
		return teammodels.Team{}, fmt.Errorf("failed to insert team: %w", err)
	}
	return t, nil
}

func (s *Store) RenameTeam(ctx context.Context, id, name string) error {
	if err := s.check(teammodels.Team{ID: id, Name: name}); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE teams SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename team: %w", err)
	}
	return requireAffected(res)
}
