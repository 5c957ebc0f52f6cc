package projectmodels

import "time"

// Project is a client project hosted on its own data service instance.
type Project struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	FirmID       *string    `json:"firm_id" db:"firm_id"`
	APIURL       string     `json:"api_url" db:"api_url"`
	AnonKey      string     `json:"-" db:"anon_key"`
	ContactEmail *string    `json:"contact_email" db:"contact_email"`
	CreatedAt    *time.Time `json:"created_at" db:"created_at"`
}

// Row is a project as listed in the projects table.
type Row struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	APIURL       string     `json:"api_url"`
	ContactEmail string     `json:"contact_email"`
	CreatedAt    *time.Time `json:"created_at"`
	CreatedLabel string     `json:"created_label"`
}
