package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openvolunteer/vms-api/internal/models"
)

// JobRepository handles persistence of jobs within events.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobDetailColumns = `j.id, j.event_id, j.name, j.description, j.start_date, j.end_date,
        j.created_at, j.updated_at, e.name AS event_name`

// List returns all jobs with their event names, ordered by job name.
func (r *JobRepository) List(ctx context.Context) ([]models.JobDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs j
        JOIN events e ON e.id = j.event_id
        ORDER BY j.name ASC`, jobDetailColumns)
	var jobs []models.JobDetail
	if err := r.db.SelectContext(ctx, &jobs, query); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ListByEvent returns the event's jobs ordered by name.
func (r *JobRepository) ListByEvent(ctx context.Context, eventID string) ([]models.JobDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs j
        JOIN events e ON e.id = j.event_id
        WHERE j.event_id = $1
        ORDER BY j.name ASC`, jobDetailColumns)
	var jobs []models.JobDetail
	if err := r.db.SelectContext(ctx, &jobs, query, eventID); err != nil {
		return nil, fmt.Errorf("list event jobs: %w", err)
	}
	return jobs, nil
}

// Search lists jobs matching the conjunctive filter, ordered by name.
func (r *JobRepository) Search(ctx context.Context, filter models.JobFilter) ([]models.JobDetail, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("j.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.EventID != "" {
		conditions = append(conditions, fmt.Sprintf("j.event_id = $%d", len(args)+1))
		args = append(args, filter.EventID)
	}
	if filter.EventName != "" {
		conditions = append(conditions, fmt.Sprintf("e.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.EventName+"%")
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("j.end_date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("j.start_date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("e.city ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.City+"%")
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("e.state ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.State+"%")
	}
	if filter.Country != "" {
		conditions = append(conditions, fmt.Sprintf("e.country ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Country+"%")
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM jobs j JOIN events e ON e.id = j.event_id WHERE %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM jobs j
        JOIN events e ON e.id = j.event_id
        WHERE %s
        ORDER BY j.name ASC
        LIMIT $%d OFFSET $%d`, jobDetailColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	var jobs []models.JobDetail
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search jobs: %w", err)
	}
	return jobs, total, nil
}

// FindByID returns a job with its event name resolved.
func (r *JobRepository) FindByID(ctx context.Context, id string) (*models.JobDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs j
        JOIN events e ON e.id = j.event_id
        WHERE j.id = $1`, jobDetailColumns)
	var job models.JobDetail
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// Create persists a new job.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	const query = `INSERT INTO jobs (id, event_id, name, description, start_date, end_date, created_at, updated_at)
        VALUES (:id, :event_id, :name, :description, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Update rewrites the mutable job fields. The owning event never changes.
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	job.UpdatedAt = time.Now().UTC()
	const query = `UPDATE jobs SET name = :name, description = :description,
            start_date = :start_date, end_date = :end_date, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, job)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return requireRowAffected(result, "job")
}

// Delete removes a job row.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return requireRowAffected(result, "job")
}

// CountShifts returns how many shifts belong to the job.
func (r *JobRepository) CountShifts(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM shifts WHERE job_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count job shifts: %w", err)
	}
	return count, nil
}

// CountShiftsOutsideRange counts the job's shifts whose date falls
// outside the proposed date window.
func (r *JobRepository) CountShiftsOutsideRange(ctx context.Context, id string, start, end time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM shifts WHERE job_id = $1 AND (date < $2 OR date > $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, start, end); err != nil {
		return 0, fmt.Errorf("count shifts outside range: %w", err)
	}
	return count, nil
}
