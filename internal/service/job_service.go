package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/models"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
)

type jobRepository interface {
	List(ctx context.Context) ([]models.JobDetail, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.JobDetail, error)
	Search(ctx context.Context, filter models.JobFilter) ([]models.JobDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.JobDetail, error)
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	Delete(ctx context.Context, id string) error
	CountShifts(ctx context.Context, id string) (int, error)
	CountShiftsOutsideRange(ctx context.Context, id string, start, end time.Time) (int, error)
}

type eventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// JobRequest describes job creation and update payloads. The owning
// event is fixed at creation.
type JobRequest struct {
	EventID     string    `json:"event_id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=75"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
}

// JobService manages jobs nested inside events.
type JobService struct {
	repo      jobRepository
	events    eventReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewJobService constructs JobService.
func NewJobService(repo jobRepository, events eventReader, validate *validator.Validate, logger *zap.Logger) *JobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{repo: repo, events: events, validator: validate, logger: logger}
}

// List returns all jobs ordered by name.
func (s *JobService) List(ctx context.Context) ([]models.JobDetail, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list jobs")
	}
	return jobs, nil
}

// ListByEvent returns the event's jobs ordered by name.
func (s *JobService) ListByEvent(ctx context.Context, eventID string) ([]models.JobDetail, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	jobs, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list event jobs")
	}
	return jobs, nil
}

// Search lists jobs matching the filter with pagination metadata.
func (s *JobService) Search(ctx context.Context, filter models.JobFilter) ([]models.JobDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	jobs, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search jobs")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return jobs, pagination, nil
}

// Get returns one job with its event name.
func (s *JobService) Get(ctx context.Context, id string) (*models.JobDetail, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return job, nil
}

// Create adds a job inside its event's date window.
func (s *JobService) Create(ctx context.Context, req JobRequest) (*models.JobDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}
	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	job := &models.Job{
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if fields := job.Validate(); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if fields := checkJobWindow(job, event); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job")
	}
	return s.Get(ctx, job.ID)
}

// CheckEdit reports how many shifts fall outside the proposed job dates.
func (s *JobService) CheckEdit(ctx context.Context, id string, start, end time.Time) (*models.JobEditCheck, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	count, err := s.repo.CountShiftsOutsideRange(ctx, id, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check job dates")
	}
	return &models.JobEditCheck{OK: count == 0, InvalidCount: count}, nil
}

// Update rewrites a job. New dates must keep the event window and every
// existing shift.
func (s *JobService) Update(ctx context.Context, id string, req JobRequest) (*models.JobDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.FindByID(ctx, existing.EventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	check, err := s.CheckEdit(ctx, id, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if !check.OK {
		return nil, appErrors.Clone(appErrors.ErrConflict, "job dates exclude existing shifts")
	}
	job := existing.Job
	job.Name = req.Name
	job.Description = req.Description
	job.StartDate = req.StartDate
	job.EndDate = req.EndDate
	if fields := job.Validate(); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if fields := checkJobWindow(&job, event); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.repo.Update(ctx, &job); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update job")
	}
	return s.Get(ctx, id)
}

// Delete removes a job that has no shifts.
func (s *JobService) Delete(ctx context.Context, id string) error {
	count, err := s.repo.CountShifts(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count job shifts")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "job has shifts")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete job")
	}
	return nil
}

// checkJobWindow enforces event.start <= job.start <= job.end <= event.end.
func checkJobWindow(job *models.Job, event *models.Event) map[string]string {
	fields := map[string]string{}
	if job.StartDate.Before(event.StartDate) {
		fields["start_date"] = "job cannot start before its event"
	}
	if job.EndDate.After(event.EndDate) {
		fields["end_date"] = "job cannot end after its event"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
