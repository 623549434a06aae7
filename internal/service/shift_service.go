package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/models"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/timeutil"
)

type shiftRepository interface {
	ListByJob(ctx context.Context, jobID string) ([]models.ShiftDetail, error)
	ListOpenByJob(ctx context.Context, jobID, volunteerID string) ([]models.ShiftDetail, error)
	FindByID(ctx context.Context, id string) (*models.Shift, error)
	FindDetail(ctx context.Context, id string) (*models.ShiftDetail, error)
	Create(ctx context.Context, shift *models.Shift) error
	Update(ctx context.Context, shift *models.Shift) error
	Delete(ctx context.Context, id string) error
	CountSignups(ctx context.Context, id string) (int, error)
}

type jobReader interface {
	FindByID(ctx context.Context, id string) (*models.JobDetail, error)
}

// ShiftRequest describes shift creation and update payloads. The owning
// job is fixed at creation.
type ShiftRequest struct {
	JobID         string    `json:"job_id" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	StartTime     string    `json:"start_time" validate:"required"`
	EndTime       string    `json:"end_time" validate:"required"`
	MaxVolunteers int       `json:"max_volunteers" validate:"required,min=1,max=5000"`
	Address       *string   `json:"address,omitempty" validate:"omitempty,max=75"`
	City          *string   `json:"city,omitempty" validate:"omitempty,max=75"`
	State         *string   `json:"state,omitempty" validate:"omitempty,max=75"`
	Country       *string   `json:"country,omitempty" validate:"omitempty,max=75"`
	Venue         *string   `json:"venue,omitempty" validate:"omitempty,max=75"`
}

// ShiftService manages shifts nested inside jobs.
type ShiftService struct {
	repo      shiftRepository
	jobs      jobReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewShiftService constructs ShiftService.
func NewShiftService(repo shiftRepository, jobs jobReader, validate *validator.Validate, logger *zap.Logger) *ShiftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{repo: repo, jobs: jobs, validator: validate, logger: logger}
}

// ListByJob returns the job's shifts with slot accounting.
func (s *ShiftService) ListByJob(ctx context.Context, jobID string) ([]models.ShiftDetail, error) {
	if _, err := s.jobs.FindByID(ctx, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	shifts, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}
	return shifts, nil
}

// ListOpenByJob returns the job's shifts that still accept signups,
// omitting shifts the volunteer already holds when a volunteer ID is
// given.
func (s *ShiftService) ListOpenByJob(ctx context.Context, jobID, volunteerID string) ([]models.ShiftDetail, error) {
	if _, err := s.jobs.FindByID(ctx, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	shifts, err := s.repo.ListOpenByJob(ctx, jobID, volunteerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open shifts")
	}
	return shifts, nil
}

// Get returns one shift with hierarchy names and slot accounting.
func (s *ShiftService) Get(ctx context.Context, id string) (*models.ShiftDetail, error) {
	shift, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	return shift, nil
}

// Create adds a shift inside its job's date window.
func (s *ShiftService) Create(ctx context.Context, req ShiftRequest) (*models.ShiftDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}
	job, err := s.jobs.FindByID(ctx, req.JobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	shift := &models.Shift{JobID: req.JobID}
	if fields := s.apply(shift, req); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if fields := checkShiftWindow(shift, &job.Job); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.repo.Create(ctx, shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create shift")
	}
	return s.Get(ctx, shift.ID)
}

// Update rewrites a shift. Capacity can never drop below the current
// signup count.
func (s *ShiftService) Update(ctx context.Context, id string, req ShiftRequest) (*models.ShiftDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}
	shift, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	job, err := s.jobs.FindByID(ctx, shift.JobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	signedUp, err := s.repo.CountSignups(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count signups")
	}
	if req.MaxVolunteers < signedUp {
		return nil, appErrors.Validation(map[string]string{
			"max_volunteers": "capacity cannot drop below current signups",
		})
	}
	if fields := s.apply(shift, req); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if fields := checkShiftWindow(shift, &job.Job); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.repo.Update(ctx, shift); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update shift")
	}
	return s.Get(ctx, id)
}

// Delete removes a shift that has no signups.
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	count, err := s.repo.CountSignups(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count signups")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "shift has signups")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete shift")
	}
	return nil
}

func (s *ShiftService) apply(shift *models.Shift, req ShiftRequest) map[string]string {
	start, err := timeutil.ParseClock(req.StartTime)
	if err != nil {
		return map[string]string{"start_time": "start time must be HH:MM"}
	}
	end, err := timeutil.ParseClock(req.EndTime)
	if err != nil {
		return map[string]string{"end_time": "end time must be HH:MM"}
	}
	shift.Date = req.Date
	shift.StartTime = start
	shift.EndTime = end
	shift.MaxVolunteers = req.MaxVolunteers
	shift.Address = req.Address
	shift.City = req.City
	shift.State = req.State
	shift.Country = req.Country
	shift.Venue = req.Venue
	return shift.Validate()
}

// checkShiftWindow enforces job.start <= shift.date <= job.end.
func checkShiftWindow(shift *models.Shift, job *models.Job) map[string]string {
	if shift.Date.Before(job.StartDate) || shift.Date.After(job.EndDate) {
		return map[string]string{"date": "shift date must fall within its job dates"}
	}
	return nil
}
