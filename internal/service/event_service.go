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

type eventRepository interface {
	List(ctx context.Context) ([]models.Event, error)
	Search(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
	CountJobs(ctx context.Context, id string) (int, error)
	ListJobNamesOutsideRange(ctx context.Context, id string, start, end time.Time) ([]string, error)
}

// EventRequest describes event creation and update payloads.
type EventRequest struct {
	Name        string    `json:"name" validate:"required,max=75"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	Address     *string   `json:"address,omitempty" validate:"omitempty,max=75"`
	City        *string   `json:"city,omitempty" validate:"omitempty,max=75"`
	State       *string   `json:"state,omitempty" validate:"omitempty,max=75"`
	Country     *string   `json:"country,omitempty" validate:"omitempty,max=75"`
	Venue       *string   `json:"venue,omitempty" validate:"omitempty,max=75"`
}

// EventService manages the event catalog.
type EventService struct {
	repo      eventRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs EventService.
func NewEventService(repo eventRepository, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, validator: validate, logger: logger}
}

// List returns all events ordered by name.
func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Search lists events matching the filter with pagination metadata.
func (s *EventService) Search(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	events, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search events")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create adds an event.
func (s *EventService) Create(ctx context.Context, req EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event := s.apply(&models.Event{}, req)
	if fields := event.Validate(); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// CheckEdit reports whether the proposed date window keeps every job of
// the event inside it, listing the distinct offending job names.
func (s *EventService) CheckEdit(ctx context.Context, id string, start, end time.Time) (*models.EventEditCheck, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	names, err := s.repo.ListJobNamesOutsideRange(ctx, id, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event dates")
	}
	check := &models.EventEditCheck{OK: len(names) == 0, InvalidCount: len(names)}
	seen := map[string]bool{}
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			check.InvalidJobs = append(check.InvalidJobs, name)
		}
	}
	return check, nil
}

// Update rewrites an event. A date window that would orphan existing
// jobs is refused.
func (s *EventService) Update(ctx context.Context, id string, req EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	check, err := s.CheckEdit(ctx, id, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if !check.OK {
		return nil, appErrors.Clone(appErrors.ErrConflict, "event dates exclude existing jobs")
	}
	event = s.apply(event, req)
	if fields := event.Validate(); fields != nil {
		return nil, appErrors.Validation(fields)
	}
	if err := s.repo.Update(ctx, event); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Delete removes an event that has no jobs.
func (s *EventService) Delete(ctx context.Context, id string) error {
	count, err := s.repo.CountJobs(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count event jobs")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "event has jobs")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}

func (s *EventService) apply(event *models.Event, req EventRequest) *models.Event {
	event.Name = req.Name
	event.Description = req.Description
	event.StartDate = req.StartDate
	event.EndDate = req.EndDate
	event.Address = req.Address
	event.City = req.City
	event.State = req.State
	event.Country = req.Country
	event.Venue = req.Venue
	return event
}
