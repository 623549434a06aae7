package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/dto"
)

type mockReminderRepo struct {
	candidates map[string][]dto.ReminderCandidate
	dispatched map[string]bool
}

func reminderKey(volunteerID, shiftID string, date time.Time) string {
	return volunteerID + "/" + shiftID + "/" + date.Format("2006-01-02")
}

func (m *mockReminderRepo) DueCandidates(ctx context.Context, date time.Time) ([]dto.ReminderCandidate, error) {
	return m.candidates[date.Format("2006-01-02")], nil
}

func (m *mockReminderRepo) MarkDispatched(ctx context.Context, volunteerID, shiftID string, date time.Time) (bool, error) {
	key := reminderKey(volunteerID, shiftID, date)
	if m.dispatched[key] {
		return false, nil
	}
	if m.dispatched == nil {
		m.dispatched = map[string]bool{}
	}
	m.dispatched[key] = true
	return true, nil
}

func newReminderFixture(date time.Time) (*ReminderService, *mockReminderRepo, *mockNotifier) {
	repo := &mockReminderRepo{
		candidates: map[string][]dto.ReminderCandidate{
			date.Format("2006-01-02"): {
				{VolunteerID: "vol-1", ShiftID: "shift-1", Email: "ada@example.com",
					EventName: "Fair", JobName: "Greeter", ShiftDate: date.AddDate(0, 0, 3),
					ShiftStartTime: "09:00", ShiftEndTime: "12:00"},
				{VolunteerID: "vol-2", ShiftID: "shift-1", Email: "bob@example.com",
					EventName: "Fair", JobName: "Greeter", ShiftDate: date.AddDate(0, 0, 3),
					ShiftStartTime: "09:00", ShiftEndTime: "12:00"},
			},
		},
		dispatched: map[string]bool{},
	}
	notifier := &mockNotifier{}
	svc := NewReminderService(repo, notifier, nil, zap.NewNop())
	return svc, repo, notifier
}

func TestReminderServiceRun(t *testing.T) {
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	svc, _, notifier := newReminderFixture(date)

	result, err := svc.Run(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Candidates)
	assert.Equal(t, 2, result.Dispatched)
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, NotifyReminder, notifier.sent[0].Kind)
	assert.Equal(t, "ada@example.com", notifier.sent[0].Email)
	assert.Equal(t, "Fair", notifier.sent[0].Meta["event"])
}

func TestReminderServiceRunIdempotent(t *testing.T) {
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	svc, _, notifier := newReminderFixture(date)

	first, err := svc.Run(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Dispatched)

	// same date again: still two candidates, nothing sent
	second, err := svc.Run(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Candidates)
	assert.Zero(t, second.Dispatched)
	assert.Len(t, notifier.sent, 2)
}

func TestReminderServiceRunTruncatesToDay(t *testing.T) {
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newReminderFixture(date)

	result, err := svc.Run(context.Background(), date.Add(15*time.Hour+30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, date, result.Date)
	assert.Equal(t, 2, result.Dispatched)
}

func TestReminderServiceRunNoCandidates(t *testing.T) {
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	svc, _, notifier := newReminderFixture(date)

	result, err := svc.Run(context.Background(), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, result.Candidates)
	assert.Zero(t, result.Dispatched)
	assert.Empty(t, notifier.sent)
}
