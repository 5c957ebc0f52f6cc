package store

import (
	"context"
	"fmt"

	projectmodels "github.com/nikhil/modportal/internal/models/projects"
)

const projectColumns = `id, name, firm_id, api_url, anon_key, contact_email, created_at`

// ListProjects returns client projects newest first. Projects without a
// creation time sort last.
func (s *Store) ListProjects(ctx context.Context) ([]projectmodels.Project, error) {
	projects := []projectmodels.Project{}
	err := s.db.SelectContext(ctx, &projects, `
		SELECT `+projectColumns+`
		FROM client_projects
		ORDER BY created_at IS NULL, created_at DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (projectmodels.Project, error) {
	var p projectmodels.Project
	if err := s.db.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM client_projects WHERE id = ?`, id); err != nil {
		return projectmodels.Project{}, notFound(err)
	}
	return p, nil
}
