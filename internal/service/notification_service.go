package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/pkg/jobs"
)

// Notification kinds dispatched by the workflows.
const (
	NotifyShiftAssigned  = "SHIFT_ASSIGNED"
	NotifyShiftCancelled = "SHIFT_CANCELLED"
	NotifyEditRequested  = "EDIT_REQUESTED"
	NotifyEditApproved   = "EDIT_APPROVED"
	NotifyEditRejected   = "EDIT_REJECTED"
	NotifyReminder       = "REMINDER"
)

// Notification is a best-effort message destined for a volunteer or the
// admin audience. Meta carries kind-specific display values.
type Notification struct {
	Kind        string            `json:"kind"`
	VolunteerID string            `json:"volunteer_id,omitempty"`
	Email       string            `json:"email,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// Notifier delivers notifications. Failures never block or fail the
// operation that produced them.
type Notifier interface {
	Notify(ctx context.Context, notification Notification)
}

// NotificationService fans notifications out through a background
// queue. The sink performs the actual delivery; the default sink
// writes structured log lines.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NotificationSink is the terminal delivery step.
type NotificationSink func(ctx context.Context, notification Notification) error

// NewNotificationService constructs the service and its queue. Call
// Start before use and Stop on shutdown.
func NewNotificationService(sink NotificationSink, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = LogSink(logger)
	}
	svc := &NotificationService{logger: logger}
	svc.queue = jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(Notification)
		if !ok {
			logger.Warn("notification payload has unexpected type", zap.String("job_id", job.ID))
			return nil
		}
		return sink(ctx, notification)
	}, cfg)
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify enqueues the notification. Drops it with a warning when the
// queue is saturated or stopped.
func (s *NotificationService) Notify(ctx context.Context, notification Notification) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    notification.Kind,
		Payload: notification,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("kind", notification.Kind),
			zap.String("volunteer_id", notification.VolunteerID),
			zap.Error(err))
	}
}

// LogSink writes each notification as a structured log line. It stands
// in for an email or push integration.
func LogSink(logger *zap.Logger) NotificationSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, notification Notification) error {
		fields := []zap.Field{
			zap.String("kind", notification.Kind),
			zap.String("volunteer_id", notification.VolunteerID),
			zap.String("email", notification.Email),
		}
		for key, value := range notification.Meta {
			fields = append(fields, zap.String(key, value))
		}
		logger.Info("notification", fields...)
		return nil
	}
}
