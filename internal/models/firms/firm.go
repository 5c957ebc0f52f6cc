package firmmodels

import (
	"bytes"
	"encoding/json"
	"time"
)

// Firm represents a row of mod_firm
type Firm struct {
	ID           string     `json:"id" db:"id" validate:"required"`
	Name         string     `json:"name" db:"name" validate:"required,min=1,max=200"`
	ContactEmail *string    `json:"contact_email" db:"contact_email" validate:"omitempty,email"`
	Website      *string    `json:"website" db:"website" validate:"omitempty,url"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    *time.Time `json:"created_at" db:"created_at"`
}

// Row is a firm with its role labels and the number of client projects
// attached to it.
type Row struct {
	Firm
	Roles         []string `json:"roles"`
	ProjectsCount int      `json:"projects_count"`
}

// Patch carries a partial update. Nil fields are left untouched. An empty
// ContactEmail or Website clears the column.
type Patch struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=200"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	Website      *string `json:"website" validate:"omitempty,url"`
	IsActive     *bool   `json:"is_active"`
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.ContactEmail == nil && p.Website == nil && p.IsActive == nil
}

// UnmarshalJSON reads an explicit null contact_email or website as a request
// to clear it. Unknown fields are rejected.
func (p *Patch) UnmarshalJSON(data []byte) error {
	type plain Patch
	var v plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, dst := range map[string]**string{"contact_email": &v.ContactEmail, "website": &v.Website} {
		if msg, ok := raw[key]; ok && bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			blank := ""
			*dst = &blank
		}
	}

	*p = Patch(v)
	return nil
}

// Checked returns the patch with cleared fields unset, ready for validation
// of the values that remain.
func (p Patch) Checked() Patch {
	if p.ContactEmail != nil && *p.ContactEmail == "" {
		p.ContactEmail = nil
	}
	if p.Website != nil && *p.Website == "" {
		p.Website = nil
	}
	return p
}
