package dto

import "time"

// ReportScope selects whose associations a generated report covers.
type ReportScope string

const (
	ScopeSingleVolunteer ReportScope = "SINGLE_VOLUNTEER"
	ScopeAllVolunteers   ReportScope = "ALL_VOLUNTEERS"
)

// ReportFilter is the conjunctive filter applied when generating a
// report. Name filters are case-insensitive substrings; the date range
// is inclusive over the shift date.
type ReportFilter struct {
	FirstName    string     `json:"first_name,omitempty" form:"first_name"`
	LastName     string     `json:"last_name,omitempty" form:"last_name"`
	Organization string     `json:"organization,omitempty" form:"organization"`
	EventName    string     `json:"event_name,omitempty" form:"event_name"`
	JobName      string     `json:"job_name,omitempty" form:"job_name"`
	StartDate    *time.Time `json:"start_date,omitempty" form:"start_date" time_format:"2006-01-02"`
	EndDate      *time.Time `json:"end_date,omitempty" form:"end_date" time_format:"2006-01-02"`
}

// ReportRow is one logged association in a generated report, ordered by
// event name, then shift date, then start time.
type ReportRow struct {
	VolunteerShiftID string    `db:"volunteer_shift_id" json:"volunteer_shift_id"`
	VolunteerID      string    `db:"volunteer_id" json:"volunteer_id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	EventName        string    `db:"event_name" json:"event_name"`
	JobName          string    `db:"job_name" json:"job_name"`
	ShiftDate        time.Time `db:"shift_date" json:"shift_date"`
	StartTime        string    `db:"logged_start" json:"start_time"`
	EndTime          string    `db:"logged_end" json:"end_time"`
	Duration         float64   `db:"-" json:"duration"`
}

// ReportSummary is the result of a generate call: the ordered rows and
// their duration sum rounded to two decimals.
type ReportSummary struct {
	Rows       []ReportRow `json:"rows"`
	TotalHours float64     `json:"total_hours"`
}

// SubmitReportRequest persists a pending report over the listed
// associations.
type SubmitReportRequest struct {
	VolunteerID       string   `json:"volunteer_id" validate:"required"`
	VolunteerShiftIDs []string `json:"volunteer_shift_ids" validate:"required,min=1"`
}
