package models

import "time"

// Notification is an in-app message produced by a workflow event.
type Notification struct {
	ID             string     `db:"id" json:"id"`
	RecipientID    *string    `db:"recipient_id" json:"recipientId,omitempty"`
	RecipientEmail *string    `db:"recipient_email" json:"recipientEmail,omitempty"`
	FormID         string     `db:"form_id" json:"formId"`
	Event          string     `db:"event" json:"event"`
	Message        string     `db:"message" json:"message"`
	ReadAt         *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}
