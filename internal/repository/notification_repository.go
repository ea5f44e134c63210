package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ug1-portal-api/internal/models"
)

// NotificationRepository stores in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, recipient_id, recipient_email, form_id, event, message, created_at)
	VALUES (:id, :recipient_id, :recipient_email, :form_id, :event, :message, :created_at)
	ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListForRecipient returns the latest notifications addressed to a user id or email.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, userID, email string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, recipient_id, recipient_email, form_id, event, message, read_at, created_at
	FROM notifications WHERE recipient_id = $1 OR (recipient_email <> '' AND LOWER(recipient_email) = LOWER($2))
	ORDER BY created_at DESC LIMIT %d`, limit)
	var out []models.Notification
	if err := r.db.SelectContext(ctx, &out, query, userID, email); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}
