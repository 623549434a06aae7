package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openvolunteer/vms-api/internal/models"
)

// EditRequestRepository handles persistence of pending hour-edit
// requests and their exclusive consumption.
type EditRequestRepository struct {
	db *sqlx.DB
}

// NewEditRequestRepository constructs the repository.
func NewEditRequestRepository(db *sqlx.DB) *EditRequestRepository {
	return &EditRequestRepository{db: db}
}

const editRequestDetailColumns = `er.id, er.volunteer_shift_id, er.start_time, er.end_time, er.created_at,
        vs.volunteer_id, vs.shift_id, vs.start_time AS logged_start, vs.end_time AS logged_end,
        s.start_time AS shift_start_time, s.end_time AS shift_end_time,
        j.name AS job_name, e.name AS event_name, v.first_name, v.last_name`

const editRequestDetailFrom = `FROM edit_requests er
        JOIN volunteer_shifts vs ON vs.id = er.volunteer_shift_id
        JOIN shifts s ON s.id = vs.shift_id
        JOIN jobs j ON j.id = s.job_id
        JOIN events e ON e.id = j.event_id
        JOIN volunteers v ON v.id = vs.volunteer_id`

// Create files a request and raises the pending marker on the
// association. The association row is locked so only one pending
// request can exist at a time.
func (r *EditRequestRepository) Create(ctx context.Context, request *models.EditRequest) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin edit request tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var editRequested bool
	if err := tx.GetContext(ctx, &editRequested,
		`SELECT edit_requested FROM volunteer_shifts WHERE id = $1 FOR UPDATE`,
		request.VolunteerShiftID); err != nil {
		return err
	}
	if editRequested {
		return ErrEditPending
	}

	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.CreatedAt = time.Now().UTC()
	const insert = `INSERT INTO edit_requests (id, volunteer_shift_id, start_time, end_time, created_at)
        VALUES (:id, :volunteer_shift_id, :start_time, :end_time, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, request); err != nil {
		return fmt.Errorf("insert edit request: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE volunteer_shifts SET edit_requested = true WHERE id = $1`,
		request.VolunteerShiftID); err != nil {
		return fmt.Errorf("mark edit requested: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit edit request tx: %w", err)
	}
	return nil
}

// ListPending returns all open requests with review context, oldest first.
func (r *EditRequestRepository) ListPending(ctx context.Context) ([]models.EditRequestDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s ORDER BY er.created_at ASC`,
		editRequestDetailColumns, editRequestDetailFrom)
	var requests []models.EditRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list edit requests: %w", err)
	}
	return requests, nil
}

// FindByID returns a request with review context.
func (r *EditRequestRepository) FindByID(ctx context.Context, id string) (*models.EditRequestDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE er.id = $1`,
		editRequestDetailColumns, editRequestDetailFrom)
	var request models.EditRequestDetail
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Apply consumes the request, rewriting the association's logged times
// to the proposed ones. The request row is locked so concurrent
// decisions cannot both succeed.
func (r *EditRequestRepository) Apply(ctx context.Context, id string) (*models.EditRequest, error) {
	return r.consume(ctx, id, true)
}

// Discard consumes the request, leaving the logged times untouched.
func (r *EditRequestRepository) Discard(ctx context.Context, id string) (*models.EditRequest, error) {
	return r.consume(ctx, id, false)
}

func (r *EditRequestRepository) consume(ctx context.Context, id string, apply bool) (*models.EditRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin edit decision tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var request models.EditRequest
	if err := tx.GetContext(ctx, &request,
		`SELECT id, volunteer_shift_id, start_time, end_time, created_at
         FROM edit_requests WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, err
	}

	if apply {
		if _, err := tx.ExecContext(ctx,
			`UPDATE volunteer_shifts SET start_time = $1, end_time = $2, date_logged = $3, edit_requested = false
             WHERE id = $4`,
			request.StartTime, request.EndTime, time.Now().UTC(), request.VolunteerShiftID); err != nil {
			return nil, fmt.Errorf("apply edit request: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE volunteer_shifts SET edit_requested = false WHERE id = $1`,
			request.VolunteerShiftID); err != nil {
			return nil, fmt.Errorf("clear edit marker: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM edit_requests WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete edit request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit edit decision tx: %w", err)
	}
	return &request, nil
}
