package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/repository"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
)

type editRequestRepository interface {
	Create(ctx context.Context, request *models.EditRequest) error
	ListPending(ctx context.Context) ([]models.EditRequestDetail, error)
	FindByID(ctx context.Context, id string) (*models.EditRequestDetail, error)
	Apply(ctx context.Context, id string) (*models.EditRequest, error)
	Discard(ctx context.Context, id string) (*models.EditRequest, error)
}

type associationReader interface {
	FindByID(ctx context.Context, id string) (*models.VolunteerShift, error)
}

// EditRequestService runs the logged-hours correction workflow: a
// volunteer proposes new times, an admin approves or rejects.
type EditRequestService struct {
	repo       editRequestRepository
	assocs     associationReader
	shifts     shiftReader
	volunteers volunteerReader
	notifier   Notifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewEditRequestService constructs EditRequestService.
func NewEditRequestService(repo editRequestRepository, assocs associationReader, shifts shiftReader, volunteers volunteerReader, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *EditRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditRequestService{repo: repo, assocs: assocs, shifts: shifts, volunteers: volunteers, notifier: notifier, validator: validate, logger: logger}
}

// Request files a correction for an association with logged hours. Only
// one request may be pending per association.
func (s *EditRequestService) Request(ctx context.Context, volunteerShiftID string, req LogHoursRequest) (*models.EditRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hours payload")
	}
	assoc, err := s.assocs.FindByID(ctx, volunteerShiftID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "signup not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signup")
	}
	if !assoc.HasHours() {
		return nil, appErrors.Clone(appErrors.ErrStateInvalid, "no hours logged")
	}
	if assoc.Reported {
		return nil, appErrors.Clone(appErrors.ErrStateInvalid, "hours already claimed by a report")
	}
	if assoc.EditRequested {
		return nil, appErrors.Clone(appErrors.ErrConflict, "edit request already pending")
	}
	shift, err := s.shifts.FindByID(ctx, assoc.ShiftID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	start, end, fields := ValidateLoggedTimes(req.StartTime, req.EndTime, shift)
	if fields != nil {
		return nil, appErrors.Validation(fields)
	}

	request := &models.EditRequest{
		VolunteerShiftID: volunteerShiftID,
		StartTime:        start,
		EndTime:          end,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "signup not found")
		case errors.Is(err, repository.ErrEditPending):
			return nil, appErrors.Clone(appErrors.ErrConflict, "edit request already pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create edit request")
	}

	s.notify(ctx, NotifyEditRequested, assoc.VolunteerID, map[string]string{
		"request_id": request.ID,
		"start_time": start,
		"end_time":   end,
	})
	return request, nil
}

// ListPending returns the admin review queue, oldest first.
func (s *EditRequestService) ListPending(ctx context.Context) ([]models.EditRequestDetail, error) {
	requests, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list edit requests")
	}
	return requests, nil
}

// Get returns one pending request with review context.
func (s *EditRequestService) Get(ctx context.Context, id string) (*models.EditRequestDetail, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "edit request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load edit request")
	}
	return request, nil
}

// Approve applies the proposed times and consumes the request.
func (s *EditRequestService) Approve(ctx context.Context, id string) (*models.EditRequest, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	request, err := s.repo.Apply(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "edit request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve edit request")
	}
	s.notify(ctx, NotifyEditApproved, detail.VolunteerID, map[string]string{
		"request_id": id,
		"start_time": request.StartTime,
		"end_time":   request.EndTime,
	})
	return request, nil
}

// Reject discards the proposed times and consumes the request.
func (s *EditRequestService) Reject(ctx context.Context, id string) (*models.EditRequest, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	request, err := s.repo.Discard(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "edit request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject edit request")
	}
	s.notify(ctx, NotifyEditRejected, detail.VolunteerID, map[string]string{"request_id": id})
	return request, nil
}

func (s *EditRequestService) notify(ctx context.Context, kind, volunteerID string, meta map[string]string) {
	if s.notifier == nil {
		return
	}
	notification := Notification{Kind: kind, VolunteerID: volunteerID, Meta: meta}
	if volunteer, err := s.volunteers.FindByID(ctx, volunteerID); err == nil {
		notification.Email = volunteer.Email
	}
	s.notifier.Notify(ctx, notification)
}
