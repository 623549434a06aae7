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

type mockEditRequestRepo struct {
	assocs   map[string]*models.VolunteerShift
	requests map[string]*models.EditRequest
}

func (m *mockEditRequestRepo) Create(ctx context.Context, request *models.EditRequest) error {
	assoc, ok := m.assocs[request.VolunteerShiftID]
	if !ok {
		return sql.ErrNoRows
	}
	if request.ID == "" {
		request.ID = "req-" + request.VolunteerShiftID
	}
	request.CreatedAt = time.Now()
	if m.requests == nil {
		m.requests = map[string]*models.EditRequest{}
	}
	m.requests[request.ID] = request
	assoc.EditRequested = true
	return nil
}

func (m *mockEditRequestRepo) ListPending(ctx context.Context) ([]models.EditRequestDetail, error) {
	var list []models.EditRequestDetail
	for _, request := range m.requests {
		list = append(list, models.EditRequestDetail{EditRequest: *request})
	}
	return list, nil
}

func (m *mockEditRequestRepo) FindByID(ctx context.Context, id string) (*models.EditRequestDetail, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	assoc := m.assocs[request.VolunteerShiftID]
	return &models.EditRequestDetail{EditRequest: *request, VolunteerID: assoc.VolunteerID, ShiftID: assoc.ShiftID}, nil
}

func (m *mockEditRequestRepo) Apply(ctx context.Context, id string) (*models.EditRequest, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	assoc := m.assocs[request.VolunteerShiftID]
	start, end := request.StartTime, request.EndTime
	now := time.Now()
	assoc.StartTime = &start
	assoc.EndTime = &end
	assoc.DateLogged = &now
	assoc.EditRequested = false
	delete(m.requests, id)
	return request, nil
}

func (m *mockEditRequestRepo) Discard(ctx context.Context, id string) (*models.EditRequest, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	m.assocs[request.VolunteerShiftID].EditRequested = false
	delete(m.requests, id)
	return request, nil
}

type mockAssocReader struct {
	assocs map[string]*models.VolunteerShift
}

func (m *mockAssocReader) FindByID(ctx context.Context, id string) (*models.VolunteerShift, error) {
	if assoc, ok := m.assocs[id]; ok {
		copied := *assoc
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func newEditRequestFixture(logged bool) (*EditRequestService, *mockEditRequestRepo, *mockNotifier) {
	assoc := &models.VolunteerShift{ID: "vs-1", VolunteerID: "vol-1", ShiftID: "shift-1"}
	if logged {
		start, end := "09:00", "12:00"
		now := time.Now()
		assoc.StartTime = &start
		assoc.EndTime = &end
		assoc.DateLogged = &now
	}
	assocs := map[string]*models.VolunteerShift{"vs-1": assoc}
	repo := &mockEditRequestRepo{assocs: assocs}
	shifts := &mockShiftReader{shifts: map[string]*models.Shift{
		"shift-1": {ID: "shift-1", StartTime: "09:00", EndTime: "17:00"},
	}}
	volunteers := &mockVolunteerReader{volunteers: map[string]*models.VolunteerDetail{
		"vol-1": {Volunteer: models.Volunteer{ID: "vol-1", Email: "ada@example.com"}},
	}}
	notifier := &mockNotifier{}
	svc := NewEditRequestService(repo, &mockAssocReader{assocs: assocs}, shifts, volunteers, notifier, validator.New(), zap.NewNop())
	return svc, repo, notifier
}

func TestEditRequestServiceRequestAndApprove(t *testing.T) {
	svc, repo, notifier := newEditRequestFixture(true)

	request, err := svc.Request(context.Background(), "vs-1", LogHoursRequest{StartTime: "10:00", EndTime: "14:00"})
	require.NoError(t, err)
	assert.True(t, repo.assocs["vs-1"].EditRequested)
	assert.Equal(t, NotifyEditRequested, notifier.sent[0].Kind)

	applied, err := svc.Approve(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", applied.StartTime)
	assert.Equal(t, "10:00", *repo.assocs["vs-1"].StartTime)
	assert.Equal(t, "14:00", *repo.assocs["vs-1"].EndTime)
	assert.False(t, repo.assocs["vs-1"].EditRequested)
	assert.Equal(t, NotifyEditApproved, notifier.sent[len(notifier.sent)-1].Kind)
}

func TestEditRequestServiceReject(t *testing.T) {
	svc, repo, notifier := newEditRequestFixture(true)

	request, err := svc.Request(context.Background(), "vs-1", LogHoursRequest{StartTime: "10:00", EndTime: "14:00"})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), request.ID)
	require.NoError(t, err)
	// original times stand
	assert.Equal(t, "09:00", *repo.assocs["vs-1"].StartTime)
	assert.Equal(t, "12:00", *repo.assocs["vs-1"].EndTime)
	assert.False(t, repo.assocs["vs-1"].EditRequested)
	assert.Equal(t, NotifyEditRejected, notifier.sent[len(notifier.sent)-1].Kind)
}

func TestEditRequestServiceRequestWithoutHours(t *testing.T) {
	svc, _, _ := newEditRequestFixture(false)

	_, err := svc.Request(context.Background(), "vs-1", LogHoursRequest{StartTime: "10:00", EndTime: "14:00"})
	require.Error(t, err)
	assert.Equal(t, "STATE_INVALID", appErrors.FromError(err).Code)
}

func TestEditRequestServiceDuplicatePending(t *testing.T) {
	svc, _, _ := newEditRequestFixture(true)

	_, err := svc.Request(context.Background(), "vs-1", LogHoursRequest{StartTime: "10:00", EndTime: "14:00"})
	require.NoError(t, err)
	_, err = svc.Request(context.Background(), "vs-1", LogHoursRequest{StartTime: "11:00", EndTime: "14:00"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestEditRequestServiceRequestOutsideShiftBounds(t *testing.T) {
	svc, _, _ := newEditRequestFixture(true)

	_, err := svc.Request(context.Background(), "vs-1", LogHoursRequest{StartTime: "08:00", EndTime: "14:00"})
	require.Error(t, err)
	assert.Equal(t, "CONSTRAINT_VIOLATION", appErrors.FromError(err).Code)
}

func TestEditRequestServiceApproveMissing(t *testing.T) {
	svc, _, _ := newEditRequestFixture(true)

	_, err := svc.Approve(context.Background(), "req-x")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}
