package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openvolunteer/vms-api/internal/models"
)

// ShiftRepository handles persistence of shifts and their slot counts.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftDetailColumns = `s.id, s.job_id, s.date, s.start_time, s.end_time, s.max_volunteers,
        s.address, s.city, s.state, s.country, s.venue, s.created_at, s.updated_at,
        j.name AS job_name, e.id AS event_id, e.name AS event_name,
        (SELECT COUNT(*) FROM volunteer_shifts vs WHERE vs.shift_id = s.id) AS signed_up,
        s.max_volunteers - (SELECT COUNT(*) FROM volunteer_shifts vs WHERE vs.shift_id = s.id) AS slots_remaining`

// ListByJob returns the job's shifts ordered by date then start time.
func (r *ShiftRepository) ListByJob(ctx context.Context, jobID string) ([]models.ShiftDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts s
        JOIN jobs j ON j.id = s.job_id
        JOIN events e ON e.id = j.event_id
        WHERE s.job_id = $1
        ORDER BY s.date ASC, s.start_time ASC`, shiftDetailColumns)
	var shifts []models.ShiftDetail
	if err := r.db.SelectContext(ctx, &shifts, query, jobID); err != nil {
		return nil, fmt.Errorf("list job shifts: %w", err)
	}
	return shifts, nil
}

// ListOpenByJob returns the job's shifts that still have slots left,
// skipping shifts the given volunteer is already signed up for when a
// volunteer ID is supplied.
func (r *ShiftRepository) ListOpenByJob(ctx context.Context, jobID, volunteerID string) ([]models.ShiftDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts s
        JOIN jobs j ON j.id = s.job_id
        JOIN events e ON e.id = j.event_id
        WHERE s.job_id = $1
          AND s.max_volunteers > (SELECT COUNT(*) FROM volunteer_shifts vs WHERE vs.shift_id = s.id)`, shiftDetailColumns)
	args := []interface{}{jobID}
	if volunteerID != "" {
		query += fmt.Sprintf(`
          AND NOT EXISTS (SELECT 1 FROM volunteer_shifts vs WHERE vs.shift_id = s.id AND vs.volunteer_id = $%d)`, len(args)+1)
		args = append(args, volunteerID)
	}
	query += `
        ORDER BY s.date ASC, s.start_time ASC`

	var shifts []models.ShiftDetail
	if err := r.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, fmt.Errorf("list open shifts: %w", err)
	}
	return shifts, nil
}

// FindByID returns a shift by its ID without hierarchy context.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	const query = `SELECT id, job_id, date, start_time, end_time, max_volunteers,
            address, city, state, country, venue, created_at, updated_at
        FROM shifts WHERE id = $1`
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// FindDetail returns a shift with hierarchy names and slot accounting.
func (r *ShiftRepository) FindDetail(ctx context.Context, id string) (*models.ShiftDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts s
        JOIN jobs j ON j.id = s.job_id
        JOIN events e ON e.id = j.event_id
        WHERE s.id = $1`, shiftDetailColumns)
	var shift models.ShiftDetail
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create persists a new shift.
func (r *ShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	shift.CreatedAt = now
	shift.UpdatedAt = now
	const query = `INSERT INTO shifts (id, job_id, date, start_time, end_time, max_volunteers,
            address, city, state, country, venue, created_at, updated_at)
        VALUES (:id, :job_id, :date, :start_time, :end_time, :max_volunteers,
            :address, :city, :state, :country, :venue, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

// Update rewrites the mutable shift fields. The owning job never changes.
func (r *ShiftRepository) Update(ctx context.Context, shift *models.Shift) error {
	shift.UpdatedAt = time.Now().UTC()
	const query = `UPDATE shifts SET date = :date, start_time = :start_time, end_time = :end_time,
            max_volunteers = :max_volunteers, address = :address, city = :city, state = :state,
            country = :country, venue = :venue, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, shift)
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return requireRowAffected(result, "shift")
}

// Delete removes a shift row.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	return requireRowAffected(result, "shift")
}

// CountSignups returns how many volunteers hold the shift.
func (r *ShiftRepository) CountSignups(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM volunteer_shifts WHERE shift_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count shift signups: %w", err)
	}
	return count, nil
}
