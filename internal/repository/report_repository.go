package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openvolunteer/vms-api/internal/dto"
	"github.com/openvolunteer/vms-api/internal/models"
)

// ReportRepository handles report row aggregation and persisted
// report lifecycle.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportRowColumns = `vs.id AS volunteer_shift_id, vs.volunteer_id, v.first_name, v.last_name,
        e.name AS event_name, j.name AS job_name, s.date AS shift_date,
        vs.start_time AS logged_start, vs.end_time AS logged_end`

const reportRowFrom = `FROM volunteer_shifts vs
        JOIN volunteers v ON v.id = vs.volunteer_id
        LEFT JOIN organizations o ON o.id = v.organization_id
        JOIN shifts s ON s.id = vs.shift_id
        JOIN jobs j ON j.id = s.job_id
        JOIN events e ON e.id = j.event_id`

// Rows returns logged associations matching the filter, ordered by
// event name, shift date, then logged start time. A non-empty
// volunteerID narrows the rows to that volunteer.
func (r *ReportRepository) Rows(ctx context.Context, filter dto.ReportFilter, volunteerID string) ([]dto.ReportRow, error) {
	conditions := []string{"vs.start_time IS NOT NULL"}
	args := []interface{}{}

	if volunteerID != "" {
		conditions = append(conditions, fmt.Sprintf("vs.volunteer_id = $%d", len(args)+1))
		args = append(args, volunteerID)
	}
	if filter.FirstName != "" {
		conditions = append(conditions, fmt.Sprintf("v.first_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.FirstName+"%")
	}
	if filter.LastName != "" {
		conditions = append(conditions, fmt.Sprintf("v.last_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.LastName+"%")
	}
	if filter.Organization != "" {
		conditions = append(conditions, fmt.Sprintf("o.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Organization+"%")
	}
	if filter.EventName != "" {
		conditions = append(conditions, fmt.Sprintf("e.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.EventName+"%")
	}
	if filter.JobName != "" {
		conditions = append(conditions, fmt.Sprintf("j.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.JobName+"%")
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s
        ORDER BY e.name ASC, s.date ASC, vs.start_time ASC`,
		reportRowColumns, reportRowFrom, strings.Join(conditions, " AND "))

	var rows []dto.ReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query report rows: %w", err)
	}
	return rows, nil
}

// Create persists a pending report and binds its member associations,
// marking each association as claimed by a report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report, volunteerShiftIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.DateSubmitted = time.Now().UTC()
	report.ConfirmStatus = models.ReportPending
	const insert = `INSERT INTO reports (id, volunteer_id, total_hours, confirm_status, date_submitted)
        VALUES (:id, :volunteer_id, :total_hours, :confirm_status, :date_submitted)`
	if _, err := tx.NamedExecContext(ctx, insert, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	for _, vsID := range volunteerShiftIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_shifts (report_id, volunteer_shift_id) VALUES ($1, $2)`,
			report.ID, vsID); err != nil {
			return fmt.Errorf("insert report member: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE volunteer_shifts SET report_status = true WHERE id = $1`, vsID); err != nil {
			return fmt.Errorf("mark reported: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submit tx: %w", err)
	}
	return nil
}

const reportDetailColumns = `r.id, r.volunteer_id, r.total_hours, r.confirm_status, r.date_submitted,
        v.first_name, v.last_name`

// List returns reports newest first, optionally narrowed to a status.
func (r *ReportRepository) List(ctx context.Context, status *models.ReportStatus) ([]models.ReportDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports r
        JOIN volunteers v ON v.id = r.volunteer_id`, reportDetailColumns)
	args := []interface{}{}
	if status != nil {
		query += " WHERE r.confirm_status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY r.date_submitted DESC"

	var reports []models.ReportDetail
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ListByVolunteer returns the volunteer's reports newest first.
func (r *ReportRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.ReportDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports r
        JOIN volunteers v ON v.id = r.volunteer_id
        WHERE r.volunteer_id = $1
        ORDER BY r.date_submitted DESC`, reportDetailColumns)
	var reports []models.ReportDetail
	if err := r.db.SelectContext(ctx, &reports, query, volunteerID); err != nil {
		return nil, fmt.Errorf("list volunteer reports: %w", err)
	}
	return reports, nil
}

// FindByID returns a report with the volunteer name resolved.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports r
        JOIN volunteers v ON v.id = r.volunteer_id
        WHERE r.id = $1`, reportDetailColumns)
	var report models.ReportDetail
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// MemberRows returns the logged rows bound to a persisted report in
// report order.
func (r *ReportRepository) MemberRows(ctx context.Context, reportID string) ([]dto.ReportRow, error) {
	query := fmt.Sprintf(`SELECT %s %s
        JOIN report_shifts rs ON rs.volunteer_shift_id = vs.id
        WHERE rs.report_id = $1
        ORDER BY e.name ASC, s.date ASC, vs.start_time ASC`, reportRowColumns, reportRowFrom)
	var rows []dto.ReportRow
	if err := r.db.SelectContext(ctx, &rows, query, reportID); err != nil {
		return nil, fmt.Errorf("query report members: %w", err)
	}
	return rows, nil
}

// SetStatus moves a pending report to approved or rejected. Rejection
// releases the member associations so they can be reported again.
// Returns ErrNotPending when the report has already been decided.
func (r *ReportRepository) SetStatus(ctx context.Context, id string, status models.ReportStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current models.ReportStatus
	if err := tx.GetContext(ctx, &current,
		`SELECT confirm_status FROM reports WHERE id = $1 FOR UPDATE`, id); err != nil {
		return err
	}
	if current != models.ReportPending {
		return ErrNotPending
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reports SET confirm_status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("update report status: %w", err)
	}

	if status == models.ReportRejected {
		if _, err := tx.ExecContext(ctx,
			`UPDATE volunteer_shifts SET report_status = false
             WHERE id IN (SELECT volunteer_shift_id FROM report_shifts WHERE report_id = $1)`, id); err != nil {
			return fmt.Errorf("release report members: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status tx: %w", err)
	}
	return nil
}
