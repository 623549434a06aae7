package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/dto"
	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/repository"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
)

type mockReportRepo struct {
	rows    []dto.ReportRow
	reports map[string]*models.Report
	members map[string][]string
}

func (m *mockReportRepo) Rows(ctx context.Context, filter dto.ReportFilter, volunteerID string) ([]dto.ReportRow, error) {
	var out []dto.ReportRow
	for _, row := range m.rows {
		if volunteerID != "" && row.VolunteerID != volunteerID {
			continue
		}
		if filter.EventName != "" && !strings.Contains(strings.ToLower(row.EventName), strings.ToLower(filter.EventName)) {
			continue
		}
		if filter.JobName != "" && !strings.Contains(strings.ToLower(row.JobName), strings.ToLower(filter.JobName)) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.Report, volunteerShiftIDs []string) error {
	if report.ID == "" {
		report.ID = "rep-1"
	}
	report.ConfirmStatus = models.ReportPending
	report.DateSubmitted = time.Now()
	if m.reports == nil {
		m.reports = map[string]*models.Report{}
		m.members = map[string][]string{}
	}
	m.reports[report.ID] = report
	m.members[report.ID] = volunteerShiftIDs
	return nil
}

func (m *mockReportRepo) List(ctx context.Context, status *models.ReportStatus) ([]models.ReportDetail, error) {
	var list []models.ReportDetail
	for _, report := range m.reports {
		if status != nil && report.ConfirmStatus != *status {
			continue
		}
		list = append(list, models.ReportDetail{Report: *report})
	}
	return list, nil
}

func (m *mockReportRepo) ListByVolunteer(ctx context.Context, volunteerID string) ([]models.ReportDetail, error) {
	var list []models.ReportDetail
	for _, report := range m.reports {
		if report.VolunteerID == volunteerID {
			list = append(list, models.ReportDetail{Report: *report})
		}
	}
	return list, nil
}

func (m *mockReportRepo) FindByID(ctx context.Context, id string) (*models.ReportDetail, error) {
	if report, ok := m.reports[id]; ok {
		return &models.ReportDetail{Report: *report}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportRepo) MemberRows(ctx context.Context, reportID string) ([]dto.ReportRow, error) {
	var out []dto.ReportRow
	for _, vsID := range m.members[reportID] {
		for _, row := range m.rows {
			if row.VolunteerShiftID == vsID {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (m *mockReportRepo) SetStatus(ctx context.Context, id string, status models.ReportStatus) error {
	report, ok := m.reports[id]
	if !ok {
		return sql.ErrNoRows
	}
	if report.ConfirmStatus != models.ReportPending {
		return repository.ErrNotPending
	}
	report.ConfirmStatus = status
	return nil
}

func strPtr(s string) *string { return &s }

func newReportFixture() (*ReportService, *mockReportRepo, *mockAssocReader) {
	repo := &mockReportRepo{rows: []dto.ReportRow{
		{VolunteerShiftID: "vs-1", VolunteerID: "vol-1", FirstName: "Ada", LastName: "Smith",
			EventName: "Fair", JobName: "Greeter", ShiftDate: time.Now(), StartTime: "09:00", EndTime: "11:00"},
		{VolunteerShiftID: "vs-2", VolunteerID: "vol-1", FirstName: "Ada", LastName: "Smith",
			EventName: "Cleanup", JobName: "Crew", ShiftDate: time.Now(), StartTime: "13:00", EndTime: "14:00"},
	}}
	assocs := &mockAssocReader{assocs: map[string]*models.VolunteerShift{
		"vs-1": {ID: "vs-1", VolunteerID: "vol-1", ShiftID: "shift-1", StartTime: strPtr("09:00"), EndTime: strPtr("11:00")},
		"vs-2": {ID: "vs-2", VolunteerID: "vol-1", ShiftID: "shift-2", StartTime: strPtr("13:00"), EndTime: strPtr("14:00")},
		"vs-3": {ID: "vs-3", VolunteerID: "vol-1", ShiftID: "shift-3"},
	}}
	svc := NewReportService(repo, assocs, nil, 0, validator.New(), zap.NewNop())
	return svc, repo, assocs
}

func TestReportServiceGenerateTotals(t *testing.T) {
	svc, _, _ := newReportFixture()

	summary, err := svc.Generate(context.Background(), dto.ReportFilter{}, dto.ScopeAllVolunteers, "")
	require.NoError(t, err)
	require.Len(t, summary.Rows, 2)
	assert.InDelta(t, 2.0, summary.Rows[0].Duration, 0.001)
	assert.InDelta(t, 1.0, summary.Rows[1].Duration, 0.001)
	assert.InDelta(t, 3.0, summary.TotalHours, 0.001)
}

func TestReportServiceGenerateFiltered(t *testing.T) {
	svc, _, _ := newReportFixture()

	summary, err := svc.Generate(context.Background(), dto.ReportFilter{EventName: "Cleanup"}, dto.ScopeAllVolunteers, "")
	require.NoError(t, err)
	require.Len(t, summary.Rows, 1)
	assert.InDelta(t, 1.0, summary.TotalHours, 0.001)
}

func TestReportServiceGenerateSingleVolunteerRequiresID(t *testing.T) {
	svc, _, _ := newReportFixture()

	_, err := svc.Generate(context.Background(), dto.ReportFilter{}, dto.ScopeSingleVolunteer, "")
	require.Error(t, err)
	assert.Equal(t, "CONSTRAINT_VIOLATION", appErrors.FromError(err).Code)
}

func TestReportServiceSubmit(t *testing.T) {
	svc, repo, _ := newReportFixture()

	report, err := svc.Submit(context.Background(), dto.SubmitReportRequest{
		VolunteerID:       "vol-1",
		VolunteerShiftIDs: []string{"vs-1", "vs-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportPending, report.ConfirmStatus)
	assert.InDelta(t, 3.0, report.TotalHours, 0.001)
	assert.Equal(t, []string{"vs-1", "vs-2"}, repo.members[report.ID])
}

func TestReportServiceSubmitUnloggedShift(t *testing.T) {
	svc, _, _ := newReportFixture()

	_, err := svc.Submit(context.Background(), dto.SubmitReportRequest{
		VolunteerID:       "vol-1",
		VolunteerShiftIDs: []string{"vs-3"},
	})
	require.Error(t, err)
	assert.Equal(t, "STATE_INVALID", appErrors.FromError(err).Code)
}

func TestReportServiceSubmitForeignShift(t *testing.T) {
	svc, _, _ := newReportFixture()

	_, err := svc.Submit(context.Background(), dto.SubmitReportRequest{
		VolunteerID:       "vol-2",
		VolunteerShiftIDs: []string{"vs-1"},
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}

func TestReportServiceSubmitAlreadyReported(t *testing.T) {
	svc, _, assocs := newReportFixture()
	assocs.assocs["vs-1"].Reported = true

	_, err := svc.Submit(context.Background(), dto.SubmitReportRequest{
		VolunteerID:       "vol-1",
		VolunteerShiftIDs: []string{"vs-1"},
	})
	require.Error(t, err)
	assert.Equal(t, "STATE_INVALID", appErrors.FromError(err).Code)
}

func TestReportServiceSetStatus(t *testing.T) {
	svc, _, _ := newReportFixture()

	report, err := svc.Submit(context.Background(), dto.SubmitReportRequest{
		VolunteerID:       "vol-1",
		VolunteerShiftIDs: []string{"vs-1"},
	})
	require.NoError(t, err)

	decided, err := svc.SetStatus(context.Background(), report.ID, models.ReportApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ReportApproved, decided.ConfirmStatus)

	// deciding twice is refused
	_, err = svc.SetStatus(context.Background(), report.ID, models.ReportRejected)
	require.Error(t, err)
	assert.Equal(t, "STATE_INVALID", appErrors.FromError(err).Code)
}

func TestReportServiceSetStatusRejectsPendingTarget(t *testing.T) {
	svc, _, _ := newReportFixture()

	_, err := svc.SetStatus(context.Background(), "rep-x", models.ReportPending)
	require.Error(t, err)
	assert.Equal(t, "CONSTRAINT_VIOLATION", appErrors.FromError(err).Code)
}
