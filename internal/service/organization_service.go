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

type organizationRepository interface {
	List(ctx context.Context) ([]models.Organization, error)
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id string) error
	CountVolunteers(ctx context.Context, id string) (int, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const organizationListCacheKey = "organizations:list"

// OrganizationRequest describes creation and update payloads.
type OrganizationRequest struct {
	Name string `json:"name" validate:"required,max=75"`
}

// OrganizationService manages the organization directory.
type OrganizationService struct {
	repo      organizationRepository
	cache     cacheStore
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrganizationService constructs OrganizationService.
func NewOrganizationService(repo organizationRepository, cache cacheStore, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *OrganizationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &OrganizationService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns all organizations ordered by name, served from cache
// when fresh.
func (s *OrganizationService) List(ctx context.Context) ([]models.Organization, error) {
	if s.cache != nil {
		var cached []models.Organization
		if err := s.cache.Get(ctx, organizationListCacheKey, &cached); err == nil {
			return cached, nil
		}
	}
	orgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list organizations")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, organizationListCacheKey, orgs, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache organization list", zap.Error(err))
		}
	}
	return orgs, nil
}

// Get returns one organization.
func (s *OrganizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}
	return org, nil
}

// Create adds an organization in pending state.
func (s *OrganizationService) Create(ctx context.Context, req OrganizationRequest) (*models.Organization, error) {
	org := &models.Organization{Name: req.Name, ApprovedStatus: models.OrganizationPending}
	if fields := org.Validate(); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check organization name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "organization name already in use")
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create organization")
	}
	s.invalidate(ctx)
	return org, nil
}

// Update renames an organization.
func (s *OrganizationService) Update(ctx context.Context, id string, req OrganizationRequest) (*models.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	org.Name = req.Name
	if fields := org.Validate(); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check organization name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "organization name already in use")
	}
	if err := s.repo.Update(ctx, org); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update organization")
	}
	s.invalidate(ctx)
	return org, nil
}

// SetStatus approves or rejects a pending organization.
func (s *OrganizationService) SetStatus(ctx context.Context, id string, status models.OrganizationStatus) (*models.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if org.ApprovedStatus != models.OrganizationPending {
		return nil, appErrors.Clone(appErrors.ErrStateInvalid, "organization already decided")
	}
	org.ApprovedStatus = status
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update organization")
	}
	s.invalidate(ctx)
	return org, nil
}

// Delete removes an organization that no volunteer references.
func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	count, err := s.repo.CountVolunteers(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count organization volunteers")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "organization has volunteers")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete organization")
	}
	s.invalidate(ctx)
	return nil
}

func (s *OrganizationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, organizationListCacheKey); err != nil {
		s.logger.Warn("failed to invalidate organization cache", zap.Error(err))
	}
}
