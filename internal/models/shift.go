package models

import "time"

// MaxVolunteersLimit caps shift capacity, matching the legacy bound.
const MaxVolunteersLimit = 5000

// Shift is a time-bounded slot of a job on a specific date with a
// capacity. Wall times are 24-hour "HH:MM" strings in the deployment
// timezone; zero-padded so they order correctly as text.
type Shift struct {
	ID            string    `db:"id" json:"id"`
	JobID         string    `db:"job_id" json:"job_id"`
	Date          time.Time `db:"date" json:"date"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	MaxVolunteers int       `db:"max_volunteers" json:"max_volunteers"`
	Location
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ShiftDetail enriches Shift with hierarchy names and slot accounting.
type ShiftDetail struct {
	Shift
	JobName        string `db:"job_name" json:"job_name"`
	EventID        string `db:"event_id" json:"event_id"`
	EventName      string `db:"event_name" json:"event_name"`
	SignedUp       int    `db:"signed_up" json:"signed_up"`
	SlotsRemaining int    `db:"slots_remaining" json:"slots_remaining"`
}

// Validate checks field constraints, returning per-field messages.
// Parent-date nesting is enforced by the shift service, not here.
func (s *Shift) Validate() map[string]string {
	fields := map[string]string{}
	if s.JobID == "" {
		fields["job_id"] = "job is required"
	}
	if s.Date.IsZero() {
		fields["date"] = "date is required"
	}
	if s.StartTime == "" {
		fields["start_time"] = "start time is required"
	}
	if s.EndTime == "" {
		fields["end_time"] = "end time is required"
	}
	if s.StartTime != "" && s.EndTime != "" && s.EndTime <= s.StartTime {
		fields["end_time"] = "end time must be after start time"
	}
	if s.MaxVolunteers < 1 || s.MaxVolunteers > MaxVolunteersLimit {
		fields["max_volunteers"] = "max volunteers must be between 1 and 5000"
	}
	s.Location.validate(fields)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// VolunteerShift links a volunteer to a shift. Logged times are absent
// until hours are reported; both are set or neither is.
type VolunteerShift struct {
	ID            string     `db:"id" json:"id"`
	VolunteerID   string     `db:"volunteer_id" json:"volunteer_id"`
	ShiftID       string     `db:"shift_id" json:"shift_id"`
	StartTime     *string    `db:"start_time" json:"start_time,omitempty"`
	EndTime       *string    `db:"end_time" json:"end_time,omitempty"`
	DateLogged    *time.Time `db:"date_logged" json:"date_logged,omitempty"`
	EditRequested bool       `db:"edit_requested" json:"edit_requested"`
	Reported      bool       `db:"report_status" json:"reported"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// HasHours reports whether logged times are present.
func (vs *VolunteerShift) HasHours() bool {
	return vs.StartTime != nil && vs.EndTime != nil
}

// VolunteerShiftDetail joins the association with its shift hierarchy
// and the volunteer's name for listings.
type VolunteerShiftDetail struct {
	VolunteerShift
	ShiftDate      time.Time `db:"shift_date" json:"shift_date"`
	ShiftStartTime string    `db:"shift_start_time" json:"shift_start_time"`
	ShiftEndTime   string    `db:"shift_end_time" json:"shift_end_time"`
	JobName        string    `db:"job_name" json:"job_name"`
	EventName      string    `db:"event_name" json:"event_name"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
}

// EditRequest is a volunteer-proposed change to already-logged hours
// awaiting an admin decision. At most one pending request exists per
// association.
type EditRequest struct {
	ID               string    `db:"id" json:"id"`
	VolunteerShiftID string    `db:"volunteer_shift_id" json:"volunteer_shift_id"`
	StartTime        string    `db:"start_time" json:"start_time"`
	EndTime          string    `db:"end_time" json:"end_time"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// EditRequestDetail carries enough context to render the admin queue.
type EditRequestDetail struct {
	EditRequest
	VolunteerID    string  `db:"volunteer_id" json:"volunteer_id"`
	ShiftID        string  `db:"shift_id" json:"shift_id"`
	LoggedStart    *string `db:"logged_start" json:"logged_start,omitempty"`
	LoggedEnd      *string `db:"logged_end" json:"logged_end,omitempty"`
	ShiftStartTime string  `db:"shift_start_time" json:"shift_start_time"`
	ShiftEndTime   string  `db:"shift_end_time" json:"shift_end_time"`
	JobName        string  `db:"job_name" json:"job_name"`
	EventName      string  `db:"event_name" json:"event_name"`
	FirstName      string  `db:"first_name" json:"first_name"`
	LastName       string  `db:"last_name" json:"last_name"`
}
