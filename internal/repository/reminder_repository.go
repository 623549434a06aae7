package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openvolunteer/vms-api/internal/dto"
)

// ReminderRepository finds associations due for a reminder and records
// dispatches so a repeated pass stays idempotent.
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository constructs the repository.
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// DueCandidates returns every association whose shift date falls
// exactly the volunteer's reminder lead after the pass date.
func (r *ReminderRepository) DueCandidates(ctx context.Context, date time.Time) ([]dto.ReminderCandidate, error) {
	const query = `SELECT vs.volunteer_id, vs.shift_id, v.email, v.first_name, v.last_name,
            s.date AS shift_date, s.start_time AS shift_start_time, s.end_time AS shift_end_time,
            j.name AS job_name, e.name AS event_name, s.venue, s.address
        FROM volunteer_shifts vs
        JOIN volunteers v ON v.id = vs.volunteer_id
        JOIN shifts s ON s.id = vs.shift_id
        JOIN jobs j ON j.id = s.job_id
        JOIN events e ON e.id = j.event_id
        WHERE s.date = $1::date + v.reminder_days
        ORDER BY v.email ASC, s.start_time ASC`
	var candidates []dto.ReminderCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, date); err != nil {
		return nil, fmt.Errorf("query reminder candidates: %w", err)
	}
	return candidates, nil
}

// MarkDispatched records a reminder for the association on the pass
// date. Returns false when the reminder was already recorded.
func (r *ReminderRepository) MarkDispatched(ctx context.Context, volunteerID, shiftID string, date time.Time) (bool, error) {
	const query = `INSERT INTO reminder_logs (volunteer_id, shift_id, dispatch_date)
        VALUES ($1, $2, $3)
        ON CONFLICT (volunteer_id, shift_id, dispatch_date) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, volunteerID, shiftID, date)
	if err != nil {
		return false, fmt.Errorf("record reminder dispatch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
