package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
	"github.com/noah-isme/ug1-portal-api/pkg/jobs"
)

const notificationJobType = "ugform.notification"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, userID, email string, limit int) ([]models.Notification, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService turns workflow events into in-app notifications delivered by a job queue.
type NotificationService struct {
	store   notificationStore
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. Call AttachQueue once the queue exists.
func NewNotificationService(store notificationStore, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, metrics: metrics, logger: logger}
}

// AttachQueue sets the queue used for asynchronous delivery.
func (s *NotificationService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// FormEvent notifies the student who owns form about a status change, and the
// assigned tutor when a new form arrives.
func (s *NotificationService) FormEvent(ctx context.Context, form *models.UGForm, event string) {
	if s == nil || form == nil {
		return
	}
	student := form.SubmittedBy
	s.enqueue(ctx, models.Notification{
		RecipientID: optionalString(student),
		FormID:      form.ID,
		Event:       event,
		Message:     studentMessage(form, event),
	})
	if event == string(models.UGFormStatusSubmitted) && form.TutorEmail != "" {
		email := form.TutorEmail
		s.enqueue(ctx, models.Notification{
			RecipientEmail: &email,
			FormID:         form.ID,
			Event:          event,
			Message:        fmt.Sprintf("Form %s from %s (%s) is waiting for your signature", form.FormNumber, form.StudentName, form.RegisteredNo),
		})
	}
}

// Handle delivers one queued notification. It is the queue's job handler.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.store.Create(ctx, &n); err != nil {
		s.metrics.RecordNotification("error")
		return err
	}
	s.metrics.RecordNotification("ok")
	return nil
}

// ListMine returns the caller's notifications.
func (s *NotificationService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.Notification, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	items, err := s.store.ListForRecipient(ctx, actor.UserID, actor.Email, 50)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

func (s *NotificationService) enqueue(ctx context.Context, n models.Notification) {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	job := jobs.Job{ID: n.ID, Type: notificationJobType, Payload: n}
	if s.queue != nil {
		err := s.queue.Enqueue(job)
		if err == nil {
			return
		}
		s.logger.Warn("notification queue unavailable, delivering inline", zap.String("form_id", n.FormID), zap.Error(err))
	}
	if err := s.Handle(ctx, job); err != nil {
		s.logger.Warn("failed to deliver notification", zap.String("form_id", n.FormID), zap.Error(err))
	}
}

func studentMessage(form *models.UGForm, event string) string {
	switch models.UGFormStatus(event) {
	case models.UGFormStatusSubmitted:
		return fmt.Sprintf("Form %s was submitted and is waiting for your tutor", form.FormNumber)
	case models.UGFormStatusTutorApproved:
		return fmt.Sprintf("Form %s was signed by your tutor", form.FormNumber)
	case models.UGFormStatusTutorRejected:
		return fmt.Sprintf("Form %s was rejected by your tutor", form.FormNumber)
	case models.UGFormStatusManagerApproved:
		return fmt.Sprintf("Form %s was approved; copies can now be printed", form.FormNumber)
	case models.UGFormStatusCollectorRejected:
		return fmt.Sprintf("Form %s was rejected by the department", form.FormNumber)
	}
	return fmt.Sprintf("Form %s was updated", form.FormNumber)
}
