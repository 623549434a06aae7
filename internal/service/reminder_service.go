package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/dto"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/timeutil"
)

type reminderRepository interface {
	DueCandidates(ctx context.Context, date time.Time) ([]dto.ReminderCandidate, error)
	MarkDispatched(ctx context.Context, volunteerID, shiftID string, date time.Time) (bool, error)
}

// ReminderService runs the daily reminder pass. Each volunteer's lead
// preference selects which shifts are due; the dispatch log keeps a
// repeated pass for the same date from sending duplicates.
type ReminderService struct {
	repo     reminderRepository
	notifier Notifier
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReminderService constructs ReminderService. Metrics may be nil.
func NewReminderService(repo reminderRepository, notifier Notifier, metrics *MetricsService, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{repo: repo, notifier: notifier, metrics: metrics, logger: logger}
}

// Run executes one reminder pass for the given date. Safe to call more
// than once per date.
func (s *ReminderService) Run(ctx context.Context, date time.Time) (*dto.ReminderRunResult, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	candidates, err := s.repo.DueCandidates(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query reminder candidates")
	}

	result := &dto.ReminderRunResult{Date: day, Candidates: len(candidates)}
	for _, candidate := range candidates {
		fresh, err := s.repo.MarkDispatched(ctx, candidate.VolunteerID, candidate.ShiftID, day)
		if err != nil {
			s.logger.Warn("failed to record reminder dispatch",
				zap.String("volunteer_id", candidate.VolunteerID),
				zap.String("shift_id", candidate.ShiftID),
				zap.Error(err))
			continue
		}
		if !fresh {
			continue
		}
		if s.notifier != nil {
			s.notifier.Notify(ctx, Notification{
				Kind:        NotifyReminder,
				VolunteerID: candidate.VolunteerID,
				Email:       candidate.Email,
				Meta: map[string]string{
					"event":      candidate.EventName,
					"job":        candidate.JobName,
					"date":       timeutil.FormatDate(candidate.ShiftDate),
					"start_time": candidate.ShiftStartTime,
					"end_time":   candidate.ShiftEndTime,
				},
			})
		}
		s.metrics.RecordReminderDispatched()
		result.Dispatched++
	}

	s.logger.Info("reminder pass completed",
		zap.String("date", timeutil.FormatDate(day)),
		zap.Int("candidates", result.Candidates),
		zap.Int("dispatched", result.Dispatched))
	return result, nil
}

// Schedule runs a pass once per day at the configured hour until the
// context is cancelled. A pass also runs immediately on start so a
// restart never skips the current day.
func (s *ReminderService) Schedule(ctx context.Context, runAtHour int) {
	if _, err := s.Run(ctx, time.Now().UTC()); err != nil {
		s.logger.Error("reminder pass failed", zap.Error(err))
	}
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), runAtHour, 0, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.Run(ctx, time.Now().UTC()); err != nil {
				s.logger.Error("reminder pass failed", zap.Error(err))
			}
		}
	}
}
