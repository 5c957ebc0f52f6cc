package projectService

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/nikhil/modportal/internal/logger"
	projectmodels "github.com/nikhil/modportal/internal/models/projects"
)

const (
	// DefaultCheckTimeout bounds a connectivity probe.
	DefaultCheckTimeout = 2500 * time.Millisecond

	createdLabelLayout = "Jan 2, 2006"
)

type Store interface {
	ListProjects(ctx context.Context) ([]projectmodels.Project, error)
	GetProject(ctx context.Context, id string) (projectmodels.Project, error)
}

type ProjectService struct {
	Store        Store
	Client       *http.Client
	CheckTimeout time.Duration
	Log          *logger.Logger
}

func NewProjectService(st Store, checkTimeout time.Duration) *ProjectService {
	if checkTimeout <= 0 {
		checkTimeout = DefaultCheckTimeout
	}
	return &ProjectService{
		Store:        st,
		Client:       cleanhttp.DefaultPooledClient(),
		CheckTimeout: checkTimeout,
		Log:          logger.NewLogger("project-service"),
	}
}

// Rows lists client projects newest first.
func (ps *ProjectService) Rows(ctx context.Context) ([]projectmodels.Row, error) {
	projects, err := ps.Store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]projectmodels.Row, 0, len(projects))
	for _, p := range projects {
		row := projectmodels.Row{
			ID:        p.ID,
			Name:      p.Name,
			APIURL:    p.APIURL,
			CreatedAt: p.CreatedAt,
		}
		if p.ContactEmail != nil {
			row.ContactEmail = *p.ContactEmail
		}
		if p.CreatedAt != nil {
			row.CreatedLabel = p.CreatedAt.UTC().Format(createdLabelLayout)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TestConnection reports whether the project's data service answers a HEAD
// on its REST root with its anon key within CheckTimeout. Unknown projects
// return the store error; every probe failure is just false.
func (ps *ProjectService) TestConnection(ctx context.Context, projectID string) (bool, error) {
	p, err := ps.Store.GetProject(ctx, projectID)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, ps.CheckTimeout)
	defer cancel()

	log := ps.Log.WithContext(ctx)
	target := strings.TrimRight(p.APIURL, "/") + "/rest/v1/"
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		log.Warn("Invalid project URL", "project_id", projectID, "error", err)
		return false, nil
	}
	req.Header.Set("apikey", p.AnonKey)
	req.Header.Set("Authorization", "Bearer "+p.AnonKey)
	req.Header.Set("Cache-Control", "no-store")

	resp, err := ps.Client.Do(req)
	if err != nil {
		log.Info("Project unreachable", "project_id", projectID, "error", err)
		return false, nil
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	log.Info("Project connectivity checked", "project_id", projectID, "status", resp.StatusCode, "ok", ok)
	return ok, nil
}
