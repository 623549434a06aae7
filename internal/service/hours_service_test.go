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
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
)

type mockHoursStore struct {
	assocs map[string]*models.VolunteerShift
}

func hoursKey(volunteerID, shiftID string) string { return volunteerID + "/" + shiftID }

func (m *mockHoursStore) Find(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	if assoc, ok := m.assocs[hoursKey(volunteerID, shiftID)]; ok {
		copied := *assoc
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHoursStore) SetHours(ctx context.Context, volunteerID, shiftID, start, end string, loggedAt time.Time) error {
	assoc, ok := m.assocs[hoursKey(volunteerID, shiftID)]
	if !ok {
		return sql.ErrNoRows
	}
	assoc.StartTime = &start
	assoc.EndTime = &end
	assoc.DateLogged = &loggedAt
	return nil
}

func (m *mockHoursStore) ClearHours(ctx context.Context, volunteerID, shiftID string) error {
	assoc, ok := m.assocs[hoursKey(volunteerID, shiftID)]
	if !ok {
		return sql.ErrNoRows
	}
	assoc.StartTime = nil
	assoc.EndTime = nil
	assoc.DateLogged = nil
	assoc.EditRequested = false
	return nil
}

func (m *mockHoursStore) ListUnloggedByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error) {
	var list []models.VolunteerShiftDetail
	for _, assoc := range m.assocs {
		if assoc.VolunteerID == volunteerID && !assoc.HasHours() {
			list = append(list, models.VolunteerShiftDetail{VolunteerShift: *assoc})
		}
	}
	return list, nil
}

func (m *mockHoursStore) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error) {
	var list []models.VolunteerShiftDetail
	for _, assoc := range m.assocs {
		if assoc.VolunteerID == volunteerID {
			list = append(list, models.VolunteerShiftDetail{VolunteerShift: *assoc})
		}
	}
	return list, nil
}

func (m *mockHoursStore) ListLoggedByShift(ctx context.Context, shiftID string) ([]models.VolunteerShiftDetail, error) {
	var list []models.VolunteerShiftDetail
	for _, assoc := range m.assocs {
		if assoc.ShiftID == shiftID && assoc.HasHours() {
			list = append(list, models.VolunteerShiftDetail{VolunteerShift: *assoc})
		}
	}
	return list, nil
}

type mockShiftReader struct {
	shifts map[string]*models.Shift
}

func (m *mockShiftReader) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	if shift, ok := m.shifts[id]; ok {
		return shift, nil
	}
	return nil, sql.ErrNoRows
}

func newHoursFixture() (*HoursService, *mockHoursStore) {
	store := &mockHoursStore{assocs: map[string]*models.VolunteerShift{
		hoursKey("vol-1", "shift-1"): {ID: "vs-1", VolunteerID: "vol-1", ShiftID: "shift-1"},
	}}
	shifts := &mockShiftReader{shifts: map[string]*models.Shift{
		"shift-1": {ID: "shift-1", StartTime: "09:00", EndTime: "17:00"},
	}}
	svc := NewHoursService(store, shifts, validator.New(), zap.NewNop())
	return svc, store
}

func TestHoursServiceLog(t *testing.T) {
	svc, _ := newHoursFixture()

	assoc, err := svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "9:00", EndTime: "12:30"})
	require.NoError(t, err)
	require.True(t, assoc.HasHours())
	assert.Equal(t, "09:00", *assoc.StartTime)
	assert.Equal(t, "12:30", *assoc.EndTime)
}

func TestHoursServiceLogOutsideShiftBounds(t *testing.T) {
	svc, _ := newHoursFixture()

	_, err := svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "08:00", EndTime: "12:00"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "CONSTRAINT_VIOLATION", appErr.Code)
	assert.Contains(t, appErr.Fields, "start_time")

	_, err = svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "09:00", EndTime: "18:00"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "end_time")
}

func TestHoursServiceLogEndBeforeStart(t *testing.T) {
	svc, _ := newHoursFixture()

	_, err := svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "12:00", EndTime: "10:00"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "end_time")
}

func TestHoursServiceLogTwice(t *testing.T) {
	svc, _ := newHoursFixture()

	_, err := svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)
	_, err = svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "09:00", EndTime: "12:00"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestHoursServiceClearRoundTrip(t *testing.T) {
	svc, store := newHoursFixture()

	_, err := svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(context.Background(), "vol-1", "shift-1"))
	assert.False(t, store.assocs[hoursKey("vol-1", "shift-1")].HasHours())

	// logging again after a clear starts fresh
	_, err = svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "10:00", EndTime: "11:00"})
	require.NoError(t, err)
}

func TestHoursServiceClearWithoutHours(t *testing.T) {
	svc, _ := newHoursFixture()

	err := svc.Clear(context.Background(), "vol-1", "shift-1")
	require.Error(t, err)
	assert.Equal(t, "STATE_INVALID", appErrors.FromError(err).Code)
}

func TestHoursServiceUpdateReportedHours(t *testing.T) {
	svc, store := newHoursFixture()

	_, err := svc.Log(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)
	store.assocs[hoursKey("vol-1", "shift-1")].Reported = true

	_, err = svc.Update(context.Background(), "vol-1", "shift-1", LogHoursRequest{StartTime: "10:00", EndTime: "12:00"})
	require.Error(t, err)
	assert.Equal(t, "STATE_INVALID", appErrors.FromError(err).Code)
}

func TestHoursServiceTotalForVolunteer(t *testing.T) {
	svc, store := newHoursFixture()
	start1, end1 := "09:00", "11:00"
	start2, end2 := "13:00", "13:45"
	store.assocs[hoursKey("vol-1", "shift-1")].StartTime = &start1
	store.assocs[hoursKey("vol-1", "shift-1")].EndTime = &end1
	store.assocs[hoursKey("vol-1", "shift-2")] = &models.VolunteerShift{
		ID: "vs-2", VolunteerID: "vol-1", ShiftID: "shift-2", StartTime: &start2, EndTime: &end2,
	}

	total, err := svc.TotalForVolunteer(context.Background(), "vol-1")
	require.NoError(t, err)
	assert.InDelta(t, 2.75, total, 0.001)
}
