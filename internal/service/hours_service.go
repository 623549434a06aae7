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

type hoursStore interface {
	Find(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error)
	SetHours(ctx context.Context, volunteerID, shiftID, start, end string, loggedAt time.Time) error
	ClearHours(ctx context.Context, volunteerID, shiftID string) error
	ListUnloggedByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error)
	ListLoggedByShift(ctx context.Context, shiftID string) ([]models.VolunteerShiftDetail, error)
}

type shiftReader interface {
	FindByID(ctx context.Context, id string) (*models.Shift, error)
}

// LogHoursRequest carries the wall times a volunteer worked.
type LogHoursRequest struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// HoursService manages logged hours on volunteer-shift associations.
type HoursService struct {
	store     hoursStore
	shifts    shiftReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHoursService constructs HoursService.
func NewHoursService(store hoursStore, shifts shiftReader, validate *validator.Validate, logger *zap.Logger) *HoursService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HoursService{store: store, shifts: shifts, validator: validate, logger: logger}
}

// Log records hours on an association that has none yet.
func (s *HoursService) Log(ctx context.Context, volunteerID, shiftID string, req LogHoursRequest) (*models.VolunteerShift, error) {
	assoc, err := s.loadAssociation(ctx, volunteerID, shiftID)
	if err != nil {
		return nil, err
	}
	if assoc.HasHours() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "hours already logged")
	}
	return s.write(ctx, volunteerID, shiftID, req)
}

// Update rewrites already-logged hours. Hours claimed by a submitted
// report are immutable.
func (s *HoursService) Update(ctx context.Context, volunteerID, shiftID string, req LogHoursRequest) (*models.VolunteerShift, error) {
	assoc, err := s.loadAssociation(ctx, volunteerID, shiftID)
	if err != nil {
		return nil, err
	}
	if !assoc.HasHours() {
		return nil, appErrors.Clone(appErrors.ErrStateInvalid, "no hours logged")
	}
	if assoc.Reported {
		return nil, appErrors.Clone(appErrors.ErrStateInvalid, "hours already claimed by a report")
	}
	return s.write(ctx, volunteerID, shiftID, req)
}

// Clear removes logged hours, returning the association to unlogged.
func (s *HoursService) Clear(ctx context.Context, volunteerID, shiftID string) error {
	assoc, err := s.loadAssociation(ctx, volunteerID, shiftID)
	if err != nil {
		return err
	}
	if !assoc.HasHours() {
		return appErrors.Clone(appErrors.ErrStateInvalid, "no hours logged")
	}
	if assoc.Reported {
		return appErrors.Clone(appErrors.ErrStateInvalid, "hours already claimed by a report")
	}
	if err := s.store.ClearHours(ctx, volunteerID, shiftID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear hours")
	}
	return nil
}

// ListUnlogged returns the volunteer's associations still waiting for
// hours.
func (s *HoursService) ListUnlogged(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error) {
	assocs, err := s.store.ListUnloggedByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unlogged signups")
	}
	return assocs, nil
}

// ListLoggedByShift returns who logged hours on the shift.
func (s *HoursService) ListLoggedByShift(ctx context.Context, shiftID string) ([]models.VolunteerShiftDetail, error) {
	assocs, err := s.store.ListLoggedByShift(ctx, shiftID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logged signups")
	}
	return assocs, nil
}

// TotalForVolunteer sums the volunteer's logged hours.
func (s *HoursService) TotalForVolunteer(ctx context.Context, volunteerID string) (float64, error) {
	assocs, err := s.store.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signups")
	}
	total := 0.0
	for _, assoc := range assocs {
		if !assoc.HasHours() {
			continue
		}
		hours, err := timeutil.DurationHours(*assoc.StartTime, *assoc.EndTime)
		if err != nil {
			s.logger.Warn("skipping unparseable logged hours", zap.String("signup_id", assoc.ID), zap.Error(err))
			continue
		}
		total += hours
	}
	return timeutil.Round2(total), nil
}

func (s *HoursService) loadAssociation(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	assoc, err := s.store.Find(ctx, volunteerID, shiftID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "signup not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signup")
	}
	return assoc, nil
}

func (s *HoursService) write(ctx context.Context, volunteerID, shiftID string, req LogHoursRequest) (*models.VolunteerShift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hours payload")
	}
	shift, err := s.shifts.FindByID(ctx, shiftID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	start, end, fields := ValidateLoggedTimes(req.StartTime, req.EndTime, shift)
	if fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.store.SetHours(ctx, volunteerID, shiftID, start, end, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save hours")
	}
	updated, err := s.store.Find(ctx, volunteerID, shiftID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload signup")
	}
	return updated, nil
}

// ValidateLoggedTimes normalises the pair and enforces the shift-bound
// rule: shift.start <= start < end <= shift.end.
func ValidateLoggedTimes(startRaw, endRaw string, shift *models.Shift) (string, string, map[string]string) {
	start, err := timeutil.ParseClock(startRaw)
	if err != nil {
		return "", "", map[string]string{"start_time": "start time must be HH:MM"}
	}
	end, err := timeutil.ParseClock(endRaw)
	if err != nil {
		return "", "", map[string]string{"end_time": "end time must be HH:MM"}
	}
	fields := map[string]string{}
	if end <= start {
		fields["end_time"] = "end time must be after start time"
	}
	if start < shift.StartTime {
		fields["start_time"] = "start time precedes the shift start"
	}
	if end > shift.EndTime {
		fields["end_time"] = "end time exceeds the shift end"
	}
	if len(fields) > 0 {
		return "", "", fields
	}
	return start, end, nil
}
