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

// EventRepository handles persistence of events, the root of the
// event/job/shift hierarchy.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `e.id, e.name, e.description, e.start_date, e.end_date,
        e.address, e.city, e.state, e.country, e.venue, e.created_at, e.updated_at`

// List returns all events ordered by name.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events e ORDER BY e.name ASC`, eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Search lists events matching the conjunctive filter, ordered by name.
// The date range matches events overlapping the window; the job name
// filter matches events having at least one such job.
func (r *EventRepository) Search(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("e.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("e.end_date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("e.start_date <= $%d", len(args)+1))
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
	if filter.JobName != "" {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM jobs j WHERE j.event_id = e.id AND j.name ILIKE $%d)", len(args)+1))
		args = append(args, "%"+filter.JobName+"%")
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM events e WHERE %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM events e WHERE %s ORDER BY e.name ASC LIMIT $%d OFFSET $%d`,
		eventColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search events: %w", err)
	}
	return events, total, nil
}

// FindByID returns an event by its ID.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events e WHERE e.id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create persists a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, name, description, start_date, end_date,
            address, city, state, country, venue, created_at, updated_at)
        VALUES (:id, :name, :description, :start_date, :end_date,
            :address, :city, :state, :country, :venue, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update rewrites the mutable event fields.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET name = :name, description = :description,
            start_date = :start_date, end_date = :end_date, address = :address,
            city = :city, state = :state, country = :country, venue = :venue,
            updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRowAffected(result, "event")
}

// Delete removes an event row.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRowAffected(result, "event")
}

// CountJobs returns how many jobs belong to the event.
func (r *EventRepository) CountJobs(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM jobs WHERE event_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count event jobs: %w", err)
	}
	return count, nil
}

// ListJobNamesOutsideRange returns the name of every job of the event
// that does not fit inside the proposed date window, one entry per job,
// ordered by name.
func (r *EventRepository) ListJobNamesOutsideRange(ctx context.Context, id string, start, end time.Time) ([]string, error) {
	const query = `SELECT name FROM jobs
        WHERE event_id = $1 AND (start_date < $2 OR end_date > $3)
        ORDER BY name ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, id, start, end); err != nil {
		return nil, fmt.Errorf("list jobs outside range: %w", err)
	}
	return names, nil
}
