package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/models"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
)

type volunteerRepository interface {
	Search(ctx context.Context, filter models.VolunteerFilter) ([]models.VolunteerDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.VolunteerDetail, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, volunteer *models.Volunteer) error
	Update(ctx context.Context, volunteer *models.Volunteer) error
	Delete(ctx context.Context, id string) error
	CountSignups(ctx context.Context, id string) (int, error)
}

type organizationReader interface {
	FindByID(ctx context.Context, id string) (*models.Organization, error)
}

// VolunteerRequest describes profile creation and update payloads.
type VolunteerRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=30"`
	LastName       string  `json:"last_name" validate:"required,max=30"`
	Email          string  `json:"email" validate:"required,email"`
	PhoneNumber    string  `json:"phone_number" validate:"required,max=20"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=75"`
	City           *string `json:"city,omitempty" validate:"omitempty,max=75"`
	State          *string `json:"state,omitempty" validate:"omitempty,max=75"`
	Country        *string `json:"country,omitempty" validate:"omitempty,max=75"`
	OrganizationID *string `json:"organization_id,omitempty" validate:"omitempty"`
	ReminderDays   int     `json:"reminder_days" validate:"required,min=1,max=50"`
}

// VolunteerService manages volunteer profiles.
type VolunteerService struct {
	repo          volunteerRepository
	organizations organizationReader
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewVolunteerService constructs VolunteerService.
func NewVolunteerService(repo volunteerRepository, organizations organizationReader, validate *validator.Validate, logger *zap.Logger) *VolunteerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VolunteerService{repo: repo, organizations: organizations, validator: validate, logger: logger}
}

// Search lists volunteers matching the filter with pagination metadata.
func (s *VolunteerService) Search(ctx context.Context, filter models.VolunteerFilter) ([]models.VolunteerDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	volunteers, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search volunteers")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return volunteers, pagination, nil
}

// Get returns one volunteer profile.
func (s *VolunteerService) Get(ctx context.Context, id string) (*models.VolunteerDetail, error) {
	volunteer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load volunteer")
	}
	return volunteer, nil
}

// Create registers a new volunteer profile.
func (s *VolunteerService) Create(ctx context.Context, req VolunteerRequest) (*models.VolunteerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid volunteer payload")
	}
	volunteer := s.apply(&models.Volunteer{}, req)
	if fields := volunteer.Validate(); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.checkReferences(ctx, volunteer, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, volunteer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create volunteer")
	}
	return s.Get(ctx, volunteer.ID)
}

// Update rewrites a volunteer profile.
func (s *VolunteerService) Update(ctx context.Context, id string, req VolunteerRequest) (*models.VolunteerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid volunteer payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	volunteer := s.apply(&existing.Volunteer, req)
	if fields := volunteer.Validate(); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.checkReferences(ctx, volunteer, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, volunteer); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update volunteer")
	}
	return s.Get(ctx, id)
}

// Delete removes a volunteer that holds no signups.
func (s *VolunteerService) Delete(ctx context.Context, id string) error {
	count, err := s.repo.CountSignups(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count volunteer signups")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "volunteer has shift signups")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete volunteer")
	}
	return nil
}

func (s *VolunteerService) apply(volunteer *models.Volunteer, req VolunteerRequest) *models.Volunteer {
	volunteer.FirstName = req.FirstName
	volunteer.LastName = req.LastName
	volunteer.Email = req.Email
	volunteer.PhoneNumber = req.PhoneNumber
	volunteer.Address = req.Address
	volunteer.City = req.City
	volunteer.State = req.State
	volunteer.Country = req.Country
	volunteer.OrganizationID = req.OrganizationID
	volunteer.ReminderDays = req.ReminderDays
	return volunteer
}

func (s *VolunteerService) checkReferences(ctx context.Context, volunteer *models.Volunteer, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, volunteer.Email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check volunteer email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}
	if volunteer.OrganizationID != nil {
		if _, err := s.organizations.FindByID(ctx, *volunteer.OrganizationID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "organization not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
		}
	}
	return nil
}
