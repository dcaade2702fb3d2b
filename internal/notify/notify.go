// Package notify manages the notification lifecycle: scheduling,
// dispatch over email, and the user-facing dismiss/cancel transitions.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/models"
)

// ErrInvalidTransition is returned when a status change is not allowed
// from the notification's current state.
var ErrInvalidTransition = errors.New("invalid notification transition")

// Store is the slice of persistence the notifier needs.
type Store interface {
	AddNotification(models.Notification) error
	GetNotification(id, userID string) (models.Notification, error)
	GetDueNotifications(now time.Time, limit int) ([]models.Notification, error)
	SetNotificationStatus(id string, fromStatus, toStatus models.NotificationStatus, sentAt *time.Time) error
	GetUser(id string) (models.User, error)
}

// Sender delivers a notification to the user. *mailer.Mailer satisfies it.
type Sender interface {
	SendReminder(to, subject, body string) error
}

// Payload is the JSON blob stored with a notification.
type Payload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Service struct {
	store  Store
	sender Sender
}

func NewService(store Store, sender Sender) *Service {
	return &Service{store: store, sender: sender}
}

// Schedule creates a notification in the scheduled state.
func (s *Service) Schedule(userID, habitID, notificationType string, payload Payload, at time.Time) (models.Notification, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.Notification{}, fmt.Errorf("failed to encode notification payload: %w", err)
	}

	n := models.Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		HabitID:     habitID,
		Type:        notificationType,
		Payload:     string(data),
		ScheduledAt: at.UTC(),
		Status:      models.StatusScheduled,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AddNotification(n); err != nil {
		return models.Notification{}, fmt.Errorf("failed to schedule notification: %w", err)
	}
	return n, nil
}

// Dismiss marks a sent notification as dismissed. Only sent
// notifications can be dismissed; anything else is an invalid
// transition, including repeat dismissals.
func (s *Service) Dismiss(id, userID string) error {
	n, err := s.store.GetNotification(id, userID)
	if err != nil {
		return err
	}
	if n.Status != models.StatusSent {
		return fmt.Errorf("%w: cannot dismiss a %s notification", ErrInvalidTransition, n.Status)
	}
	return s.store.SetNotificationStatus(id, models.StatusSent, models.StatusDismissed, nil)
}

// Cancel withdraws a notification that has not been sent yet.
func (s *Service) Cancel(id, userID string) error {
	n, err := s.store.GetNotification(id, userID)
	if err != nil {
		return err
	}
	if n.Status != models.StatusScheduled {
		return fmt.Errorf("%w: cannot cancel a %s notification", ErrInvalidTransition, n.Status)
	}
	return s.store.SetNotificationStatus(id, models.StatusScheduled, models.StatusCancelled, nil)
}

// DispatchResult summarizes one dispatch run.
type DispatchResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Dispatch delivers due scheduled notifications, up to the batch size.
// A failed delivery stays scheduled and is retried on the next run; the
// guarded status update keeps concurrent dispatchers from double-sending.
func (s *Service) Dispatch(now time.Time) (DispatchResult, error) {
	var result DispatchResult

	due, err := s.store.GetDueNotifications(now, constants.DispatchBatchSize)
	if err != nil {
		return result, fmt.Errorf("failed to load due notifications: %w", err)
	}

	for _, n := range due {
		if err := s.deliver(n, now); err != nil {
			logger.Error("Notification delivery failed", "notification_id", n.ID, "error", err)
			result.Failed++
			continue
		}
		result.Sent++
	}

	if result.Sent > 0 || result.Failed > 0 {
		logger.Info("Notification dispatch finished", "sent", result.Sent, "failed", result.Failed)
	}
	return result, nil
}

func (s *Service) deliver(n models.Notification, now time.Time) error {
	user, err := s.store.GetUser(n.UserID)
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}

	var payload Payload
	if n.Payload != "" {
		if err := json.Unmarshal([]byte(n.Payload), &payload); err != nil {
			return fmt.Errorf("failed to decode notification payload: %w", err)
		}
	}
	if payload.Subject == "" {
		payload.Subject = defaultSubject(n.Type)
	}

	// Claim the row first; a concurrent dispatcher loses the race and
	// moves on instead of sending a duplicate.
	sentAt := now.UTC()
	if err := s.store.SetNotificationStatus(n.ID, models.StatusScheduled, models.StatusSent, &sentAt); err != nil {
		return fmt.Errorf("failed to claim notification: %w", err)
	}

	if err := s.sender.SendReminder(user.Email, payload.Subject, payload.Body); err != nil {
		// Release the claim so the next run retries.
		if revertErr := s.store.SetNotificationStatus(n.ID, models.StatusSent, models.StatusScheduled, nil); revertErr != nil {
			logger.Error("Failed to release claimed notification", "notification_id", n.ID, "error", revertErr)
		}
		return err
	}
	return nil
}

func defaultSubject(notificationType string) string {
	switch notificationType {
	case constants.NotificationReport:
		return "Your weekly habit report"
	case constants.NotificationAlert:
		return "A habit needs your attention"
	default:
		return "Habit reminder"
	}
}
