package models

import "time"

// OrganizationStatus tracks directory approval of an organization.
type OrganizationStatus int

const (
	OrganizationPending  OrganizationStatus = 0
	OrganizationApproved OrganizationStatus = 1
	OrganizationRejected OrganizationStatus = 2
)

// Organization is a directory entry volunteers may belong to. Names are
// unique across the directory.
type Organization struct {
	ID             string             `db:"id" json:"id"`
	Name           string             `db:"name" json:"name"`
	ApprovedStatus OrganizationStatus `db:"approved_status" json:"approved_status"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// Validate checks field constraints, returning per-field messages.
func (o *Organization) Validate() map[string]string {
	fields := map[string]string{}
	if o.Name == "" {
		fields["name"] = "name is required"
	} else if !namePattern.MatchString(o.Name) {
		fields["name"] = "name contains invalid characters"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
