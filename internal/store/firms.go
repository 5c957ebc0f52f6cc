package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	firmmodels "github.com/nikhil/modportal/internal/models/firms"
)

type firmRole struct {
	FirmID string `db:"firm_id"`
	Role   string `db:"role"`
}

type firmProjectCount struct {
	FirmID string `db:"firm_id"`
	Count  int    `db:"projects_count"`
}

// ListFirms returns every firm ordered by name with its roles and the number
// of client projects attached to it.
func (s *Store) ListFirms(ctx context.Context) ([]firmmodels.Row, error) {
	firms := []firmmodels.Firm{}
	err := s.db.SelectContext(ctx, &firms, `
		SELECT id, name, contact_email, website, is_active, created_at
		FROM mod_firm
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query firms: %w", err)
	}

	roles := []firmRole{}
	if err := s.db.SelectContext(ctx, &roles, `SELECT firm_id, role FROM firm_roles ORDER BY role ASC`); err != nil {
		return nil, fmt.Errorf("failed to query firm roles: %w", err)
	}

	counts := []firmProjectCount{}
	err = s.db.SelectContext(ctx, &counts, `
		SELECT firm_id, COUNT(*) AS projects_count
		FROM client_projects
		WHERE firm_id IS NOT NULL
		GROUP BY firm_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count firm projects: %w", err)
	}

	rolesByFirm := make(map[string][]string)
	for _, r := range roles {
		rolesByFirm[r.FirmID] = append(rolesByFirm[r.FirmID], r.Role)
	}
	countByFirm := make(map[string]int, len(counts))
	for _, c := range counts {
		countByFirm[c.FirmID] = c.Count
	}

	rows := make([]firmmodels.Row, 0, len(firms))
	for _, f := range firms {
		firmRoles := rolesByFirm[f.ID]
		if firmRoles == nil {
			firmRoles = []string{}
		}
		rows = append(rows, firmmodels.Row{
			Firm:          f,
			Roles:         firmRoles,
			ProjectsCount: countByFirm[f.ID],
		})
	}
	return rows, nil
}

func (s *Store) GetFirm(ctx context.Context, id string) (firmmodels.Firm, error) {
	var f firmmodels.Firm
	err := s.db.GetContext(ctx, &f, `
		SELECT id, name, contact_email, website, is_active, created_at
		FROM mod_firm WHERE id = ?
	`, id)
	if err != nil {
		return firmmodels.Firm{}, notFound(err)
	}
	return f, nil
}

// CreateFirm inserts a firm. Role labels are attached separately through the
// gateway.
func (s *Store) CreateFirm(ctx context.Context, name string, contactEmail, website *string, active bool) (firmmodels.Firm, error) {
	now := s.timestamp()
	f := firmmodels.Firm{
		ID:           uuid.NewString(),
		Name:         name,
		ContactEmail: contactEmail,
		Website:      website,
		IsActive:     active,
		CreatedAt:    &now,
	}
	if err := s.check(f); err != nil {
		return firmmodels.Firm{}, err
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO mod_firm (id, name, contact_email, website, is_active, created_at)
		VALUES (:id, :name, :contact_email, :website, :is_active, :created_at)
	`, f)
	if err != nil {
		return firmmodels.Firm{}, fmt.Errorf("failed to insert firm: %w", err)
	}
	return f, nil
}

// UpdateFirm writes the non-nil fields of patch. An empty contact email or
// website is stored as NULL.
func (s *Store) UpdateFirm(ctx context.Context, id string, patch firmmodels.Patch) error {
	if err := s.check(patch.Checked()); err != nil {
		return err
	}
	if patch.Empty() {
		if _, err := s.GetFirm(ctx, id); err != nil {
			return err
		}
		return nil
	}

	sets := []string{}
	args := []interface{}{}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.ContactEmail != nil {
		sets = append(sets, "contact_email = ?")
		args = append(args, nullable(*patch.ContactEmail))
	}
	if patch.Website != nil {
		sets = append(sets, "website = ?")
		args = append(args, nullable(*patch.Website))
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *patch.IsActive)
	}
	args = append(args, id)

	query := `UPDATE mod_firm SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update firm: %w", err)
	}
	return requireAffected(res)
}
