package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/repository"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
)

type mockVolunteerShiftStore struct {
	shifts      map[string]int
	signups     map[string]map[string]models.VolunteerShift
	registry    []string
	registerErr error
}

func (m *mockVolunteerShiftStore) key(volunteerID, shiftID string) (map[string]models.VolunteerShift, bool) {
	byShift, ok := m.signups[volunteerID]
	return byShift, ok
}

func (m *mockVolunteerShiftStore) Register(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	max, ok := m.shifts[shiftID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if byShift, ok := m.signups[volunteerID]; ok {
		if _, dup := byShift[shiftID]; dup {
			return nil, repository.ErrDuplicateSignup
		}
	}
	count := 0
	for _, byShift := range m.signups {
		if _, ok := byShift[shiftID]; ok {
			count++
		}
	}
	if count >= max {
		return nil, repository.ErrNoSlots
	}
	if m.signups == nil {
		m.signups = map[string]map[string]models.VolunteerShift{}
	}
	if m.signups[volunteerID] == nil {
		m.signups[volunteerID] = map[string]models.VolunteerShift{}
	}
	assoc := models.VolunteerShift{ID: "vs-" + volunteerID + "-" + shiftID, VolunteerID: volunteerID, ShiftID: shiftID, CreatedAt: time.Now()}
	m.signups[volunteerID][shiftID] = assoc
	m.registry = append(m.registry, assoc.ID)
	return &assoc, nil
}

func (m *mockVolunteerShiftStore) Find(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	if byShift, ok := m.key(volunteerID, shiftID); ok {
		if assoc, ok := byShift[shiftID]; ok {
			return &assoc, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockVolunteerShiftStore) Delete(ctx context.Context, volunteerID, shiftID string) error {
	if byShift, ok := m.key(volunteerID, shiftID); ok {
		if _, ok := byShift[shiftID]; ok {
			delete(byShift, shiftID)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockVolunteerShiftStore) IsKnownShift(ctx context.Context, shiftID string) (bool, error) {
	_, ok := m.shifts[shiftID]
	return ok, nil
}

func (m *mockVolunteerShiftStore) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error) {
	var list []models.VolunteerShiftDetail
	for _, assoc := range m.signups[volunteerID] {
		list = append(list, models.VolunteerShiftDetail{VolunteerShift: assoc})
	}
	return list, nil
}

func (m *mockVolunteerShiftStore) ListUpcomingByVolunteer(ctx context.Context, volunteerID string, from time.Time) ([]models.VolunteerShiftDetail, error) {
	return m.ListByVolunteer(ctx, volunteerID)
}

type mockShiftDetailReader struct{}

func (m *mockShiftDetailReader) FindDetail(ctx context.Context, id string) (*models.ShiftDetail, error) {
	return &models.ShiftDetail{Shift: models.Shift{ID: id, StartTime: "09:00", EndTime: "17:00"}, JobName: "Greeter", EventName: "Fair"}, nil
}

type mockVolunteerReader struct {
	volunteers map[string]*models.VolunteerDetail
}

func (m *mockVolunteerReader) FindByID(ctx context.Context, id string) (*models.VolunteerDetail, error) {
	if v, ok := m.volunteers[id]; ok {
		return v, nil
	}
	return nil, sql.ErrNoRows
}

type mockNotifier struct {
	sent []Notification
}

func (m *mockNotifier) Notify(ctx context.Context, notification Notification) {
	m.sent = append(m.sent, notification)
}

func newRegistrationFixture(maxVolunteers int) (*RegistrationService, *mockVolunteerShiftStore, *mockNotifier) {
	store := &mockVolunteerShiftStore{shifts: map[string]int{"shift-1": maxVolunteers}}
	volunteers := &mockVolunteerReader{volunteers: map[string]*models.VolunteerDetail{
		"vol-1": {Volunteer: models.Volunteer{ID: "vol-1", Email: "ada@example.com"}},
		"vol-2": {Volunteer: models.Volunteer{ID: "vol-2", Email: "bob@example.com"}},
	}}
	notifier := &mockNotifier{}
	svc := NewRegistrationService(store, &mockShiftDetailReader{}, volunteers, notifier, validator.New(), zap.NewNop())
	return svc, store, notifier
}

func TestRegistrationServiceRegister(t *testing.T) {
	svc, store, notifier := newRegistrationFixture(2)

	assoc, err := svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-1"})
	require.NoError(t, err)
	assert.Equal(t, "vol-1", assoc.VolunteerID)
	assert.Len(t, store.registry, 1)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, NotifyShiftAssigned, notifier.sent[0].Kind)
	assert.Equal(t, "ada@example.com", notifier.sent[0].Email)
}

func TestRegistrationServiceRegisterDuplicate(t *testing.T) {
	svc, _, _ := newRegistrationFixture(2)

	_, err := svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-1"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-1"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterCapacityExhausted(t *testing.T) {
	svc, _, _ := newRegistrationFixture(1)

	_, err := svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-1"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-2", ShiftID: "shift-1"})
	require.Error(t, err)
	assert.Equal(t, "CAPACITY_EXHAUSTED", appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterMissingShift(t *testing.T) {
	svc, _, _ := newRegistrationFixture(1)

	_, err := svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-x"})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterCancelledTransaction(t *testing.T) {
	svc, store, _ := newRegistrationFixture(2)
	store.registerErr = context.Canceled

	_, err := svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "CANCELLED", appErr.Code)
	assert.Equal(t, appErrors.StatusClientClosedRequest, appErr.Status)
}

func TestRegistrationServiceCancelFreesSlot(t *testing.T) {
	svc, _, notifier := newRegistrationFixture(1)

	_, err := svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-1"})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), "vol-1", "shift-1"))
	assert.Equal(t, NotifyShiftCancelled, notifier.sent[len(notifier.sent)-1].Kind)

	// the freed slot is usable again
	_, err = svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-2", ShiftID: "shift-1"})
	require.NoError(t, err)
}

func TestRegistrationServiceCancelTwice(t *testing.T) {
	svc, _, _ := newRegistrationFixture(1)

	_, err := svc.Register(context.Background(), SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-1"})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), "vol-1", "shift-1"))

	err = svc.Cancel(context.Background(), "vol-1", "shift-1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestRegistrationServiceCancelUnknownShift(t *testing.T) {
	svc, _, _ := newRegistrationFixture(1)

	err := svc.Cancel(context.Background(), "vol-1", "shift-x")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, "shift not found", appErr.Message)
}
