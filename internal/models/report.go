package models

import "time"

// ReportStatus divides submitted reports into pending, approved and
// rejected, keeping the legacy integer encoding.
type ReportStatus int

const (
	ReportPending  ReportStatus = 0
	ReportApproved ReportStatus = 1
	ReportRejected ReportStatus = 2
)

// Valid reports whether the status is one of the known values.
func (s ReportStatus) Valid() bool {
	return s == ReportPending || s == ReportApproved || s == ReportRejected
}

// Report is a persisted aggregation of a volunteer's logged shifts.
// Total hours carry two-decimal precision.
type Report struct {
	ID            string       `db:"id" json:"id"`
	VolunteerID   string       `db:"volunteer_id" json:"volunteer_id"`
	TotalHours    float64      `db:"total_hours" json:"total_hours"`
	ConfirmStatus ReportStatus `db:"confirm_status" json:"confirm_status"`
	DateSubmitted time.Time    `db:"date_submitted" json:"date_submitted"`
}

// ReportDetail enriches Report with the volunteer's name.
type ReportDetail struct {
	Report
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}
