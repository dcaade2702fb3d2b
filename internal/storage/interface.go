package storage

import (
	"errors"
	"time"

	"github.com/julianstephens/habitcoach/internal/models"
)

// ErrNotFound is returned when a requested row does not exist or is
// not visible to the caller.
var ErrNotFound = errors.New("not found")

// Provider is the persistence contract. Implementations exist for
// SQLite and Postgres.
type Provider interface {
	// Lifecycle
	Init() error
	Close() error
	Health() map[string]string

	// Users
	AddUser(models.User) error
	GetUser(id string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	UpdateUser(models.User) error
	GetActiveUsers() ([]models.User, error)

	// Habits
	AddHabit(models.Habit) error
	// GetHabit returns the habit only when it belongs to userID.
	GetHabit(id, userID string) (models.Habit, error)
	GetHabits(userID string, activeOnly bool) ([]models.Habit, error)
	GetAllActiveHabits() ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	// DeactivateHabit soft-deletes the habit and cancels its scheduled
	// notifications.
	DeactivateHabit(id, userID string) error

	// Entries
	// UpsertEntry inserts or replaces the entry for (habit, day) and
	// reports whether an existing row was updated.
	UpsertEntry(models.Entry) (bool, error)
	GetEntry(habitID, day string) (models.Entry, error)
	GetEntries(habitID, fromDay, toDay string) ([]models.Entry, error)
	GetAllEntries(habitID string) ([]models.Entry, error)

	// Stat snapshots
	SaveStatSnapshot(models.StatSnapshot) error
	GetStatSnapshots(habitID, fromDay, toDay string) ([]models.StatSnapshot, error)

	// Predictions
	AddPrediction(models.Prediction) error
	GetPrediction(habitID, day string, horizonDays int) (models.Prediction, error)
	GetPredictions(userID, day string, horizonDays int) ([]models.Prediction, error)

	// Notifications
	AddNotification(models.Notification) error
	GetNotification(id, userID string) (models.Notification, error)
	GetNotifications(userID string, status models.NotificationStatus) ([]models.Notification, error)
	// GetDueNotifications returns up to limit scheduled notifications
	// with scheduled_at <= now.
	GetDueNotifications(now time.Time, limit int) ([]models.Notification, error)
	// SetNotificationStatus performs a guarded transition: the update
	// applies only while the row is still in fromStatus, so concurrent
	// dispatchers and re-run batches cannot double-send. It returns
	// ErrNotFound when no row matched.
	SetNotificationStatus(id string, fromStatus, toStatus models.NotificationStatus, sentAt *time.Time) error

	// Audit
	AddAuditLog(models.AuditLog) error
}
