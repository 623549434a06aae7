package models

import "time"

// ReminderDaysMin and ReminderDaysMax bound the per-volunteer reminder
// lead-time preference.
const (
	ReminderDaysMin = 1
	ReminderDaysMax = 50
)

// Volunteer is the profile projection of an external identity: the core
// references volunteers by id and reads contact plus reminder settings.
type Volunteer struct {
	ID             string    `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	PhoneNumber    string    `db:"phone_number" json:"phone_number"`
	Address        *string   `db:"address" json:"address,omitempty"`
	City           *string   `db:"city" json:"city,omitempty"`
	State          *string   `db:"state" json:"state,omitempty"`
	Country        *string   `db:"country" json:"country,omitempty"`
	OrganizationID *string   `db:"organization_id" json:"organization_id,omitempty"`
	ReminderDays   int       `db:"reminder_days" json:"reminder_days"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// VolunteerDetail enriches Volunteer with its organization name.
type VolunteerDetail struct {
	Volunteer
	OrganizationName *string `db:"organization_name" json:"organization_name,omitempty"`
}

// VolunteerFilter captures the admin search screen criteria. Substring
// matches are case-insensitive.
type VolunteerFilter struct {
	FirstName    string
	LastName     string
	City         string
	State        string
	Country      string
	Organization string
	Page         int
	PageSize     int
}

// Validate checks field constraints, returning per-field messages.
func (v *Volunteer) Validate() map[string]string {
	fields := map[string]string{}
	if v.FirstName == "" {
		fields["first_name"] = "first name is required"
	} else if !personNamePattern.MatchString(v.FirstName) {
		fields["first_name"] = "first name contains invalid characters"
	}
	if v.LastName == "" {
		fields["last_name"] = "last name is required"
	} else if !personNamePattern.MatchString(v.LastName) {
		fields["last_name"] = "last name contains invalid characters"
	}
	if v.Email == "" {
		fields["email"] = "email is required"
	}
	if v.ReminderDays < ReminderDaysMin || v.ReminderDays > ReminderDaysMax {
		fields["reminder_days"] = "reminder days must be between 1 and 50"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
