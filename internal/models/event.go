package models

import "time"

// Event is a top-level coordinator-published activity window. Jobs nest
// inside its date range.
type Event struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	Location
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows event searches. All criteria are conjunctive.
type EventFilter struct {
	Name      string
	StartDate *time.Time
	EndDate   *time.Time
	City      string
	State     string
	Country   string
	JobName   string
	Page      int
	PageSize  int
}

// EventEditCheck reports whether new event dates would orphan jobs.
type EventEditCheck struct {
	OK           bool     `json:"ok"`
	InvalidCount int      `json:"invalid_count"`
	InvalidJobs  []string `json:"invalid_jobs,omitempty"`
}

// Validate checks field constraints, returning per-field messages.
func (e *Event) Validate() map[string]string {
	fields := map[string]string{}
	if e.Name == "" {
		fields["name"] = "name is required"
	} else if !namePattern.MatchString(e.Name) {
		fields["name"] = "name contains invalid characters"
	}
	if e.Description != "" && !descriptionPattern.MatchString(e.Description) {
		fields["description"] = "description contains invalid characters"
	}
	if e.StartDate.IsZero() {
		fields["start_date"] = "start date is required"
	}
	if e.EndDate.IsZero() {
		fields["end_date"] = "end date is required"
	}
	if !e.StartDate.IsZero() && !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		fields["end_date"] = "end date must not precede start date"
	}
	e.Location.validate(fields)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
