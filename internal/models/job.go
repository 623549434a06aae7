package models

import "time"

// Job is a role within an event spanning a subset of the event dates.
// Shifts nest inside its date range.
type Job struct {
	ID          string    `db:"id" json:"id"`
	EventID     string    `db:"event_id" json:"event_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// JobDetail enriches Job with its parent event name.
type JobDetail struct {
	Job
	EventName string `db:"event_name" json:"event_name"`
}

// JobFilter narrows job searches. All criteria are conjunctive.
type JobFilter struct {
	Name      string
	EventID   string
	EventName string
	StartDate *time.Time
	EndDate   *time.Time
	City      string
	State     string
	Country   string
	Page      int
	PageSize  int
}

// JobEditCheck reports whether new job dates would orphan shifts.
type JobEditCheck struct {
	OK           bool `json:"ok"`
	InvalidCount int  `json:"invalid_count"`
}

// Validate checks field constraints, returning per-field messages.
func (j *Job) Validate() map[string]string {
	fields := map[string]string{}
	if j.Name == "" {
		fields["name"] = "name is required"
	} else if !personNamePattern.MatchString(j.Name) {
		fields["name"] = "name contains invalid characters"
	}
	if j.Description != "" && !descriptionPattern.MatchString(j.Description) {
		fields["description"] = "description contains invalid characters"
	}
	if j.EventID == "" {
		fields["event_id"] = "event is required"
	}
	if j.StartDate.IsZero() {
		fields["start_date"] = "start date is required"
	}
	if j.EndDate.IsZero() {
		fields["end_date"] = "end date is required"
	}
	if !j.StartDate.IsZero() && !j.EndDate.IsZero() && j.EndDate.Before(j.StartDate) {
		fields["end_date"] = "end date must not precede start date"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
