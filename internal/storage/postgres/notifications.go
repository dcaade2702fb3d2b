package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

func (s *Store) AddNotification(n models.Notification) error {
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, user_id, habit_id, type, payload, scheduled_at, sent_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, nullString(n.HabitID), n.Type, nullString(n.Payload),
		n.ScheduledAt, nullTimePtr(n.SentAt), n.Status, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}
	return nil
}

func (s *Store) GetNotification(id, userID string) (models.Notification, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, habit_id, type, payload, scheduled_at, sent_at, status, created_at
		FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Notification{}, storage.ErrNotFound
		}
		return models.Notification{}, err
	}
	return n, nil
}

func (s *Store) GetNotifications(userID string, status models.NotificationStatus) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, habit_id, type, payload, scheduled_at, sent_at, status, created_at
		FROM notifications WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY scheduled_at DESC"

	return s.queryNotifications(query, args...)
}

func (s *Store) GetDueNotifications(now time.Time, limit int) ([]models.Notification, error) {
	return s.queryNotifications(`
		SELECT id, user_id, habit_id, type, payload, scheduled_at, sent_at, status, created_at
		FROM notifications WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at LIMIT $3`,
		models.StatusScheduled, now, limit)
}

// SetNotificationStatus transitions the row only while it is still in
// fromStatus. A re-run that races a finished dispatch matches zero rows
// and gets ErrNotFound instead of double-sending.
func (s *Store) SetNotificationStatus(id string, fromStatus, toStatus models.NotificationStatus, sentAt *time.Time) error {
	query := `
		UPDATE notifications SET status = $1, sent_at = COALESCE($2, sent_at)
		WHERE id = $3 AND status = $4`
	args := []any{toStatus, nullTimePtr(sentAt), id, fromStatus}
	if toStatus == models.StatusScheduled {
		// Moving back to scheduled releases a claim; the failed
		// attempt's timestamp must not survive it.
		query = `
		UPDATE notifications SET status = $1, sent_at = NULL
		WHERE id = $2 AND status = $3`
		args = []any{toStatus, id, fromStatus}
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return requireRow(res)
}

func (s *Store) queryNotifications(query string, args ...any) ([]models.Notification, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func scanNotification(row rowScanner) (models.Notification, error) {
	var n models.Notification
	var habitID, payload sql.NullString
	var sentAt sql.NullTime
	var status string

	if err := row.Scan(&n.ID, &n.UserID, &habitID, &n.Type, &payload, &n.ScheduledAt, &sentAt, &status, &n.CreatedAt); err != nil {
		return models.Notification{}, err
	}
	n.HabitID = habitID.String
	n.Payload = payload.String
	n.Status = models.NotificationStatus(status)
	if sentAt.Valid {
		t := sentAt.Time
		n.SentAt = &t
	}
	return n, nil
}
