package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvolunteer/vms-api/internal/middleware"
	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/service"
)

type signupStoreMock struct {
	max     int
	signups map[string]models.VolunteerShift
}

func (m *signupStoreMock) Register(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	if len(m.signups) >= m.max {
		return nil, sql.ErrNoRows
	}
	assoc := models.VolunteerShift{ID: "vs-1", VolunteerID: volunteerID, ShiftID: shiftID, CreatedAt: time.Now()}
	m.signups[volunteerID+"/"+shiftID] = assoc
	return &assoc, nil
}

func (m *signupStoreMock) Find(ctx context.Context, volunteerID, shiftID string) (*models.VolunteerShift, error) {
	if assoc, ok := m.signups[volunteerID+"/"+shiftID]; ok {
		return &assoc, nil
	}
	return nil, sql.ErrNoRows
}

func (m *signupStoreMock) Delete(ctx context.Context, volunteerID, shiftID string) error {
	if _, ok := m.signups[volunteerID+"/"+shiftID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.signups, volunteerID+"/"+shiftID)
	return nil
}

func (m *signupStoreMock) IsKnownShift(ctx context.Context, shiftID string) (bool, error) {
	return true, nil
}

func (m *signupStoreMock) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.VolunteerShiftDetail, error) {
	return nil, nil
}

func (m *signupStoreMock) ListUpcomingByVolunteer(ctx context.Context, volunteerID string, from time.Time) ([]models.VolunteerShiftDetail, error) {
	return nil, nil
}

type shiftDetailReaderMock struct{}

func (m *shiftDetailReaderMock) FindDetail(ctx context.Context, id string) (*models.ShiftDetail, error) {
	return &models.ShiftDetail{Shift: models.Shift{ID: id, StartTime: "09:00", EndTime: "17:00"}}, nil
}

type volunteerReaderMock struct{}

func (m *volunteerReaderMock) FindByID(ctx context.Context, id string) (*models.VolunteerDetail, error) {
	return &models.VolunteerDetail{Volunteer: models.Volunteer{ID: id, Email: id + "@example.com"}}, nil
}

type notifierMock struct{}

func (m *notifierMock) Notify(ctx context.Context, notification service.Notification) {}

func newRegistrationHandlerFixture() (*RegistrationHandler, *signupStoreMock) {
	store := &signupStoreMock{max: 10, signups: map[string]models.VolunteerShift{}}
	svc := service.NewRegistrationService(store, &shiftDetailReaderMock{}, &volunteerReaderMock{}, &notifierMock{}, nil, nil)
	return NewRegistrationHandler(svc, service.NewMetricsService()), store
}

func TestRegistrationHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newRegistrationHandlerFixture()

	payload, _ := json.Marshal(service.SignupRequest{VolunteerID: "vol-1", ShiftID: "shift-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/signups", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleVolunteer, VolunteerID: "vol-1"})

	h.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, store.signups, 1)
}

func TestRegistrationHandlerRegisterForOtherVolunteer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, store := newRegistrationHandlerFixture()

	payload, _ := json.Marshal(service.SignupRequest{VolunteerID: "vol-2", ShiftID: "shift-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/signups", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleVolunteer, VolunteerID: "vol-1"})

	h.Register(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, store.signups)
}

func TestRegistrationHandlerRegisterInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newRegistrationHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/signups", bytes.NewBufferString(`{"volunteer_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Register(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerCancelMissingSignup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newRegistrationHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/volunteers/vol-1/shifts/shift-9", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "volunteer_id", Value: "vol-1"}, {Key: "shift_id", Value: "shift-9"}}

	h.Cancel(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
