package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openvolunteer/vms-api/internal/models"
)

// VolunteerShiftRepository handles persistence of volunteer-shift
// associations, including the slot-guarded signup transaction.
type VolunteerShiftRepository struct {
	db *sqlx.DB
}

// NewVolunteerShiftRepository constructs the repository.
func NewVolunteerShiftRepository(db *sqlx.DB) *VolunteerShiftRepository {
	return &VolunteerShiftRepository{db: db}
}

const volunteerShiftColumns = `id, volunteer_id, shift_id, start_time, end_time, date_logged,
        edit_requested, report_status, created_at`

const volunteerShiftDetailColumns = `vs.id, vs.volunteer_id, vs.shift_id, vs.start_time, vs.end_time,
        vs.date_logged, vs.edit_requested, vs.report_status, vs.created_at,
        s.date AS shift_date, s.start_time AS shift_start_time, s.end_time AS shift_end_time,
        j.name AS job_name, e.name AS event_name, v.first_name, v.last_name`

const volunteerShiftDetailFrom = `FROM volunteer_shifts vs
        JOIN shifts s ON s.id = vs.shift_id
        JOIN jobs j ON j.id = s.job_id
        JOIN events e ON e.id = j.event_id
        JOIN volunteers v ON v.id = vs.volunteer_id`

// Register signs the volunteer up for the shift. The shift row is
// locked for the duration of the transaction so the duplicate and slot
// checks stay valid through the insert. Returns ErrDuplicateSignup or
// ErrNoSlots when a guard fails, sql.ErrNoRows when the shift is gone.
func (r *VolunteerShiftRepository) Register(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin register tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxVolunteers int
	if err := tx.GetContext(ctx, &maxVolunteers,
		`SELECT max_volunteers FROM shifts WHERE id = $1 FOR UPDATE`, shiftID); err != nil {
		return nil, err
	}

	var duplicates int
	if err := tx.GetContext(ctx, &duplicates,
		`SELECT COUNT(*) FROM volunteer_shifts WHERE volunteer_id = $1 AND shift_id = $2`,
		volunteerID, shiftID); err != nil {
		return nil, fmt.Errorf("check duplicate signup: %w", err)
	}
	if duplicates > 0 {
		return nil, ErrDuplicateSignup
	}

	var signedUp int
	if err := tx.GetContext(ctx, &signedUp,
		`SELECT COUNT(*) FROM volunteer_shifts WHERE shift_id = $1`, shiftID); err != nil {
		return nil, fmt.Errorf("count shift signups: %w", err)
	}
	if signedUp >= maxVolunteers {
		return nil, ErrNoSlots
	}

	assoc := &models.VolunteerShift{
		ID:          uuid.NewString(),
		VolunteerID: volunteerID,
		ShiftID:     shiftID,
		CreatedAt:   time.Now().UTC(),
	}
	const insert = `INSERT INTO volunteer_shifts (id, volunteer_id, shift_id, edit_requested, report_status, created_at)
        VALUES (:id, :volunteer_id, :shift_id, false, false, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, assoc); err != nil {
		return nil, fmt.Errorf("insert signup: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit register tx: %w", err)
	}
	return assoc, nil
}

// Find returns the association for the volunteer and shift pair.
func (r *VolunteerShiftRepository) Find(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	query := fmt.Sprintf(`SELECT %s FROM volunteer_shifts WHERE volunteer_id = $1 AND shift_id = $2`, volunteerShiftColumns)
	var assoc models.VolunteerShift
	if err := r.db.GetContext(ctx, &assoc, query, volunteerID, shiftID); err != nil {
		return nil, err
	}
	return &assoc, nil
}

// FindByID returns the association by its ID.
func (r *VolunteerShiftRepository) FindByID(ctx context.Context, id string) (*models.VolunteerShift, error) {
	query := fmt.Sprintf(`SELECT %s FROM volunteer_shifts WHERE id = $1`, volunteerShiftColumns)
	var assoc models.VolunteerShift
	if err := r.db.GetContext(ctx, &assoc, query, id); err != nil {
		return nil, err
	}
	return &assoc, nil
}

// Delete removes the association, freeing the slot.
func (r *VolunteerShiftRepository) Delete(ctx context.Context, volunteerID, shiftID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM volunteer_shifts WHERE volunteer_id = $1 AND shift_id = $2`, volunteerID, shiftID)
	if err != nil {
		return fmt.Errorf("delete signup: %w", err)
	}
	return requireRowAffected(result, "signup")
}

// SetHours records logged times on the association.
func (r *VolunteerShiftRepository) SetHours(ctx context.Context, volunteerID, shiftID, start, end string, loggedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE volunteer_shifts SET start_time = $1, end_time = $2, date_logged = $3
         WHERE volunteer_id = $4 AND shift_id = $5`,
		start, end, loggedAt, volunteerID, shiftID)
	if err != nil {
		return fmt.Errorf("set logged hours: %w", err)
	}
	return requireRowAffected(result, "signup")
}

// ClearHours removes logged times and any stale edit flag.
func (r *VolunteerShiftRepository) ClearHours(ctx context.Context, volunteerID, shiftID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE volunteer_shifts SET start_time = NULL, end_time = NULL, date_logged = NULL,
            edit_requested = false, report_status = false
         WHERE volunteer_id = $1 AND shift_id = $2`,
		volunteerID, shiftID)
	if err != nil {
		return fmt.Errorf("clear logged hours: %w", err)
	}
	return requireRowAffected(result, "signup")
}

// SetEditRequested toggles the pending-edit marker.
func (r *VolunteerShiftRepository) SetEditRequested(ctx context.Context, id string, requested bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE volunteer_shifts SET edit_requested = $1 WHERE id = $2`, requested, id)
	if err != nil {
		return fmt.Errorf("set edit requested: %w", err)
	}
	return requireRowAffected(result, "signup")
}

// ListByVolunteer returns the volunteer's associations with hierarchy
// context, ordered by shift date then start time.
func (r *VolunteerShiftRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
        WHERE vs.volunteer_id = $1
        ORDER BY s.date ASC, s.start_time ASC`, volunteerShiftDetailColumns, volunteerShiftDetailFrom)
	var assocs []models.VolunteerShiftDetail
	if err := r.db.SelectContext(ctx, &assocs, query, volunteerID); err != nil {
		return nil, fmt.Errorf("list volunteer signups: %w", err)
	}
	return assocs, nil
}

// ListUpcomingByVolunteer returns the volunteer's associations whose
// shift date is on or after the given day.
func (r *VolunteerShiftRepository) ListUpcomingByVolunteer(ctx context.Context, volunteerID string, from time.Time) ([]models.VolunteerShiftDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
        WHERE vs.volunteer_id = $1 AND s.date >= $2
        ORDER BY s.date ASC, s.start_time ASC`, volunteerShiftDetailColumns, volunteerShiftDetailFrom)
	var assocs []models.VolunteerShiftDetail
	if err := r.db.SelectContext(ctx, &assocs, query, volunteerID, from); err != nil {
		return nil, fmt.Errorf("list upcoming signups: %w", err)
	}
	return assocs, nil
}

// ListUnloggedByVolunteer returns associations still waiting for hours.
func (r *VolunteerShiftRepository) ListUnloggedByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
        WHERE vs.volunteer_id = $1 AND vs.start_time IS NULL
        ORDER BY s.date ASC, s.start_time ASC`, volunteerShiftDetailColumns, volunteerShiftDetailFrom)
	var assocs []models.VolunteerShiftDetail
	if err := r.db.SelectContext(ctx, &assocs, query, volunteerID); err != nil {
		return nil, fmt.Errorf("list unlogged signups: %w", err)
	}
	return assocs, nil
}

// ListLoggedByShift returns the shift's associations that carry hours,
// with volunteer names for the admin view.
func (r *VolunteerShiftRepository) ListLoggedByShift(ctx context.Context, shiftID string) ([]models.VolunteerShiftDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
        WHERE vs.shift_id = $1 AND vs.start_time IS NOT NULL
        ORDER BY v.last_name ASC, v.first_name ASC`, volunteerShiftDetailColumns, volunteerShiftDetailFrom)
	var assocs []models.VolunteerShiftDetail
	if err := r.db.SelectContext(ctx, &assocs, query, shiftID); err != nil {
		return nil, fmt.Errorf("list logged signups: %w", err)
	}
	return assocs, nil
}

// IsKnownShift reports whether the shift exists, used to tell a missing
// shift apart from a missing signup when cancelling.
func (r *VolunteerShiftRepository) IsKnownShift(ctx context.Context, shiftID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM shifts WHERE id = $1`, shiftID); err != nil {
		return false, fmt.Errorf("check shift exists: %w", err)
	}
	return count > 0, nil
}
