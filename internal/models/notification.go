package models

import "time"

// NotificationStatus is the lifecycle state of a notification.
//
// Valid transitions:
//
//	scheduled -> sent       (dispatch)
//	sent      -> dismissed  (user action)
//	scheduled -> cancelled  (habit deactivated before send)
//
// dismissed and cancelled are terminal.
type NotificationStatus string

const (
	StatusScheduled NotificationStatus = "scheduled"
	StatusSent      NotificationStatus = "sent"
	StatusDismissed NotificationStatus = "dismissed"
	StatusCancelled NotificationStatus = "cancelled"
)

// Notification is a scheduled reminder, report, or alert for a user.
type Notification struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	HabitID     string             `json:"habit_id,omitempty"`
	Type        string             `json:"type"`              // reminder, report, or alert
	Payload     string             `json:"payload,omitempty"` // JSON blob
	ScheduledAt time.Time          `json:"scheduled_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
	Status      NotificationStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Terminal reports whether no further transitions are allowed.
func (s NotificationStatus) Terminal() bool {
	return s == StatusDismissed || s == StatusCancelled
}
