package firmService

import (
	"context"
	"strings"

	"github.com/nikhil/modportal/internal/events"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/middleware"
	firmmodels "github.com/nikhil/modportal/internal/models/firms"
	"github.com/nikhil/modportal/internal/reconcile"
	"github.com/nikhil/modportal/internal/store"
)

type Store interface {
	ListFirms(ctx context.Context) ([]firmmodels.Row, error)
	GetFirm(ctx context.Context, id string) (firmmodels.Firm, error)
	CreateFirm(ctx context.Context, name string, contactEmail, website *string, active bool) (firmmodels.Firm, error)
	UpdateFirm(ctx context.Context, id string, patch firmmodels.Patch) error
}

type Gateway interface {
	Reconcile(ctx context.Context, rel store.Relation, ownerID string, desired []string) (reconcile.Diff, error)
}

type FirmService struct {
	Store   Store
	Gateway Gateway
	Events  events.Publisher
	Log     *logger.Logger
}

// CreateFirmRequest is the body of a firm creation.
type CreateFirmRequest struct {
	Name         string   `json:"name"`
	ContactEmail *string  `json:"contact_email"`
	Website      *string  `json:"website"`
	IsActive     *bool    `json:"is_active"`
	Roles        []string `json:"roles"`
}

func NewFirmService(st Store, gw Gateway, pub events.Publisher) *FirmService {
	return &FirmService{
		Store:   st,
		Gateway: gw,
		Events:  pub,
		Log:     logger.NewLogger("firm-service"),
	}
}

// Rows lists firms by name with their roles and project counts.
func (fs *FirmService) Rows(ctx context.Context) ([]firmmodels.Row, error) {
	return fs.Store.ListFirms(ctx)
}

// CreateFirm inserts the firm and then its role labels. A failure while
// adding roles leaves the firm in place.
func (fs *FirmService) CreateFirm(ctx context.Context, req CreateFirmRequest) (firmmodels.Row, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	firm, err := fs.Store.CreateFirm(ctx, strings.TrimSpace(req.Name), blankToNil(req.ContactEmail), blankToNil(req.Website), active)
	if err != nil {
		return firmmodels.Row{}, err
	}
	fs.logger(ctx).Audit("Firm created", "firm_id", firm.ID, "name", firm.Name)

	row := firmmodels.Row{Firm: firm, Roles: []string{}}
	if len(req.Roles) > 0 {
		diff, err := fs.Gateway.Reconcile(ctx, store.FirmRoles, firm.ID, cleanRoles(req.Roles))
		if err != nil {
			return row, err
		}
		row.Roles = diff.ToAdd
	}

	fs.publish(ctx, firm.ID)
	return row, nil
}

// UpdateFirm applies a partial update.
func (fs *FirmService) UpdateFirm(ctx context.Context, firmID string, patch firmmodels.Patch) error {
	patch.Name = trimmed(patch.Name)
	patch.ContactEmail = trimmed(patch.ContactEmail)
	patch.Website = trimmed(patch.Website)
	if err := fs.Store.UpdateFirm(ctx, firmID, patch); err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}

	fs.logger(ctx).Audit("Firm updated", "firm_id", firmID)
	fs.publish(ctx, firmID)
	return nil
}

// SetRoles replaces the firm's role labels.
func (fs *FirmService) SetRoles(ctx context.Context, firmID string, roles []string) (reconcile.Diff, error) {
	if _, err := fs.Store.GetFirm(ctx, firmID); err != nil {
		return reconcile.Diff{}, err
	}

	diff, err := fs.Gateway.Reconcile(ctx, store.FirmRoles, firmID, cleanRoles(roles))
	if err != nil {
		return reconcile.Diff{}, err
	}
	if diff.Empty() {
		return diff, nil
	}

	fs.logger(ctx).Audit("Firm roles set", "firm_id", firmID, "added", diff.ToAdd, "removed", diff.ToRemove)
	fs.publish(ctx, firmID)
	return diff, nil
}

// cleanRoles trims labels and drops blanks. Duplicates collapse in the
// reconciler.
func cleanRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func (fs *FirmService) logger(ctx context.Context) *logger.Logger {
	return fs.Log.WithContext(ctx).WithUser(middleware.ActorID(ctx))
}

func (fs *FirmService) publish(ctx context.Context, firmID string) {
	fs.Events.Publish(events.Event{Type: events.FirmsChanged, ID: firmID, Actor: middleware.ActorID(ctx)})
}
