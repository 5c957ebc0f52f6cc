package usermodels

import "time"

type User struct {
	ID        string     `json:"id" db:"id" validate:"required"`
	Name      string     `json:"name" db:"display_name" validate:"max=200"`
	Email     string     `json:"email" db:"email" validate:"required,email"`
	AvatarURL *string    `json:"avatar_url" db:"avatar_url" validate:"omitempty,url"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt *time.Time `json:"-" db:"created_at"`
}

// Label is what pickers show for a user.
func (u User) Label() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

type Role struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Row is a user as listed on the users table, with role and team names
// resolved next to their ids.
type Row struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           *string    `json:"name"`
	IsActive       bool       `json:"is_active"`
	AvatarURL      *string    `json:"avatar_url"`
	Roles          []string   `json:"roles"`
	RoleIDs        []string   `json:"roles_ids"`
	Teams          []string   `json:"teams"`
	TeamIDs        []string   `json:"teams_ids"`
	CreatedAt      *time.Time `json:"created_at"`
	CreatedAtLabel string     `json:"created_at_label"`
}
