package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/repository"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/timeutil"
)

type volunteerShiftStore interface {
	Register(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error)
	Find(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error)
	Delete(ctx context.Context, volunteerID, shiftID string) error
	IsKnownShift(ctx context.Context, shiftID string) (bool, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error)
	ListUpcomingByVolunteer(ctx context.Context, volunteerID string, from time.Time) ([]models.VolunteerShiftDetail, error)
}

type shiftDetailReader interface {
	FindDetail(ctx context.Context, id string) (*models.ShiftDetail, error)
}

type volunteerReader interface {
	FindByID(ctx context.Context, id string) (*models.VolunteerDetail, error)
}

// SignupRequest names the volunteer and shift to associate.
type SignupRequest struct {
	VolunteerID string `json:"volunteer_id" validate:"required"`
	ShiftID     string `json:"shift_id" validate:"required"`
}

// RegistrationService owns the volunteer-shift association lifecycle:
// slot-guarded signup, cancellation, and the volunteer's agenda views.
type RegistrationService struct {
	store      volunteerShiftStore
	shifts     shiftDetailReader
	volunteers volunteerReader
	notifier   Notifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(store volunteerShiftStore, shifts shiftDetailReader, volunteers volunteerReader, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{store: store, shifts: shifts, volunteers: volunteers, notifier: notifier, validator: validate, logger: logger}
}

// Register signs the volunteer up for the shift. The duplicate and
// slot guards are evaluated atomically against concurrent signups.
func (s *RegistrationService) Register(ctx context.Context, req SignupRequest) (*models.VolunteerShift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}
	volunteer, err := s.volunteers.FindByID(ctx, req.VolunteerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load volunteer")
	}

	assoc, err := s.store.Register(ctx, req.VolunteerID, req.ShiftID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		case errors.Is(err, repository.ErrDuplicateSignup):
			return nil, appErrors.Clone(appErrors.ErrConflict, "volunteer already signed up for shift")
		case errors.Is(err, repository.ErrNoSlots):
			return nil, appErrors.Clone(appErrors.ErrCapacityExhausted, "shift has no slots remaining")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register signup")
	}

	s.notifyShift(ctx, NotifyShiftAssigned, volunteer, req.ShiftID)
	return assoc, nil
}

// Cancel removes the association and frees the slot.
func (s *RegistrationService) Cancel(ctx context.Context, volunteerID, shiftID string) error {
	volunteer, err := s.volunteers.FindByID(ctx, volunteerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load volunteer")
	}
	if err := s.store.Delete(ctx, volunteerID, shiftID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			known, checkErr := s.store.IsKnownShift(ctx, shiftID)
			if checkErr == nil && !known {
				return appErrors.Clone(appErrors.ErrNotFound, "shift not found")
			}
			return appErrors.Clone(appErrors.ErrNotFound, "signup not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel signup")
	}
	s.notifyShift(ctx, NotifyShiftCancelled, volunteer, shiftID)
	return nil
}

// Get returns the association for the volunteer and shift pair.
func (s *RegistrationService) Get(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	assoc, err := s.store.Find(ctx, volunteerID, shiftID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "signup not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signup")
	}
	return assoc, nil
}

// ListForVolunteer returns the volunteer's signups in schedule order.
func (s *RegistrationService) ListForVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error) {
	if _, err := s.volunteers.FindByID(ctx, volunteerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load volunteer")
	}
	assocs, err := s.store.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signups")
	}
	return assocs, nil
}

// ListUpcomingForVolunteer returns signups from today onward.
func (s *RegistrationService) ListUpcomingForVolunteer(ctx context.Context, volunteerID string, now time.Time) ([]models.VolunteerShiftDetail, error) {
	if _, err := s.volunteers.FindByID(ctx, volunteerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load volunteer")
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	assocs, err := s.store.ListUpcomingByVolunteer(ctx, volunteerID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming signups")
	}
	return assocs, nil
}

func (s *RegistrationService) notifyShift(ctx context.Context, kind string, volunteer *models.VolunteerDetail, shiftID string) {
	if s.notifier == nil {
		return
	}
	meta := map[string]string{"shift_id": shiftID}
	if shift, err := s.shifts.FindDetail(ctx, shiftID); err == nil {
		meta["event"] = shift.EventName
		meta["job"] = shift.JobName
		meta["date"] = timeutil.FormatDate(shift.Date)
		meta["start_time"] = shift.StartTime
		meta["end_time"] = shift.EndTime
	}
	s.notifier.Notify(ctx, Notification{
		Kind:        kind,
		VolunteerID: volunteer.ID,
		Email:       volunteer.Email,
		Meta:        meta,
	})
}
