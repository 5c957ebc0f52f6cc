package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nikhil/modportal/internal/reconcile"
)

// Relation is a set-valued join table scoped to an owner row.
type Relation struct {
	table  string
	owner  string
	member string
}

func (r Relation) String() string {
	return r.table + "." + r.member
}

var (
	TeamMembers = Relation{table: "team_members", owner: "team_id", member: "user_id"}
	UserTeams   = Relation{table: "team_members", owner: "user_id", member: "team_id"}
	UserRoles   = Relation{table: "user_roles", owner: "user_id", member: "role_id"}
	FirmRoles   = Relation{table: "firm_roles", owner: "firm_id", member: "role"}
)

// Gateway applies reconciled sets to the entity store. The delete and the
// insert are separate statements: a failed insert leaves the delete in place
// and a later Reconcile recomputes from whatever is stored.
type Gateway struct {
	db *sqlx.DB
}

func NewGateway(db *sqlx.DB) *Gateway {
	return &Gateway{db: db}
}

// Members returns the member ids currently stored for owner.
func (g *Gateway) Members(ctx context.Context, rel Relation, ownerID string) ([]string, error) {
	ids := []string{}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, rel.member, rel.table, rel.owner)
	if err := g.db.SelectContext(ctx, &ids, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return ids, nil
}

// Apply issues at most one bulk delete and then at most one bulk insert.
func (g *Gateway) Apply(ctx context.Context, rel Relation, ownerID string, diff reconcile.Diff) error {
	if len(diff.ToRemove) > 0 {
		query, args, err := sqlx.In(
			fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s IN (?)`, rel.table, rel.owner, rel.member),
			ownerID, diff.ToRemove,
		)
		if err != nil {
			return err
		}
		if _, err := g.db.ExecContext(ctx, g.db.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to remove %s: %w", rel, err)
		}
	}

	if len(diff.ToAdd) > 0 {
		values := make([]string, 0, len(diff.ToAdd))
		args := make([]interface{}, 0, 2*len(diff.ToAdd))
		for _, id := range diff.ToAdd {
			values = append(values, "(?, ?)")
			args = append(args, ownerID, id)
		}
		query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES %s`,
			rel.table, rel.owner, rel.member, strings.Join(values, ", "))
		if _, err := g.db.ExecContext(ctx, g.db.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to add %s: %w", rel, err)
		}
	}
	return nil
}

// Reconcile replaces owner's stored set with desired and returns the diff
// that was applied.
func (g *Gateway) Reconcile(ctx context.Context, rel Relation, ownerID string, desired []string) (reconcile.Diff, error) {
	current, err := g.Members(ctx, rel, ownerID)
	if err != nil {
		return reconcile.Diff{}, err
	}

	diff := reconcile.Compute(current, desired)
	if diff.Empty() {
		return diff, nil
	}
	return diff, g.Apply(ctx, rel, ownerID, diff)
}

// SetParent replaces the hierarchy edge of childID. A nil parentID leaves the
// child without a parent.
func (g *Gateway) SetParent(ctx context.Context, childID string, parentID *string) error {
	if _, err := g.db.ExecContext(ctx, `DELETE FROM team_hierarchy WHERE child_id = ?`, childID); err != nil {
		return fmt.Errorf("failed to clear parent: %w", err)
	}
	if parentID == nil {
		return nil
	}

	_, err := g.db.ExecContext(ctx, `INSERT INTO team_hierarchy (child_id, parent_id) VALUES (?, ?)`, childID, *parentID)
	if err != nil {
		return fmt.Errorf("failed to set parent: %w", err)
	}
	return nil
}
