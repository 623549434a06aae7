package dto

import "time"

// ReminderCandidate is an association whose shift falls exactly
// reminder-lead-days after the pass date.
type ReminderCandidate struct {
	VolunteerID    string    `db:"volunteer_id" json:"volunteer_id"`
	ShiftID        string    `db:"shift_id" json:"shift_id"`
	Email          string    `db:"email" json:"email"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	ShiftDate      time.Time `db:"shift_date" json:"shift_date"`
	ShiftStartTime string    `db:"shift_start_time" json:"shift_start_time"`
	ShiftEndTime   string    `db:"shift_end_time" json:"shift_end_time"`
	JobName        string    `db:"job_name" json:"job_name"`
	EventName      string    `db:"event_name" json:"event_name"`
	Venue          *string   `db:"venue" json:"venue,omitempty"`
	Address        *string   `db:"address" json:"address,omitempty"`
}

// ReminderRunResult reports a completed reminder pass.
type ReminderRunResult struct {
	Date       time.Time `json:"date"`
	Candidates int       `json:"candidates"`
	Dispatched int       `json:"dispatched"`
}
