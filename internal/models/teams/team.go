package teammodels

import (
	"time"

	usermodels "github.com/nikhil/modportal/internal/models/users"
)

// Team represents a team entity
type Team struct {
	ID        string     `json:"id" db:"id" validate:"required"`
	Name      string     `json:"name" db:"name" validate:"required,min=1,max=100"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	FirmID    *string    `json:"firm_id" db:"firm_id"`
}

// Edge links a child team to its parent in team_hierarchy.
type Edge struct {
	ChildID  string  `json:"child_id" db:"child_id" validate:"required"`
	ParentID *string `json:"parent_id" db:"parent_id"`
}

// Membership is a single team_members join row.
type Membership struct {
	TeamID string `json:"team_id" db:"team_id"`
	UserID string `json:"user_id" db:"user_id"`
}

// Node is a team with its resolved parent, members and children.
// Nodes are built per request and never persisted.
type Node struct {
	Team
	ParentID *string           `json:"parent_id"`
	Members  []usermodels.User `json:"members"`
	Children []*Node           `json:"children"`
}

// Option is an id/label pair used by pickers.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
