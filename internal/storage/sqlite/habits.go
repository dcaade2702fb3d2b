package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

func (s *Store) AddHabit(h models.Habit) error {
	_, err := s.db.Exec(`
		INSERT INTO habits (id, user_id, name, description, type, target_value, schedule, reminder_times, difficulty, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Name, nullString(h.Description), h.Type, h.TargetValue,
		nullString(h.Schedule), nullString(h.ReminderTimes), h.Difficulty, boolToInt(h.Active),
		h.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	return nil
}

func (s *Store) GetHabit(id, userID string) (models.Habit, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, name, description, type, target_value, schedule, reminder_times, difficulty, active, created_at
		FROM habits WHERE id = ? AND user_id = ?`, id, userID)

	h, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, storage.ErrNotFound
		}
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) GetHabits(userID string, activeOnly bool) ([]models.Habit, error) {
	query := `
		SELECT id, user_id, name, description, type, target_value, schedule, reminder_times, difficulty, active, created_at
		FROM habits WHERE user_id = ?`
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY created_at"

	return s.queryHabits(query, userID)
}

func (s *Store) GetAllActiveHabits() ([]models.Habit, error) {
	return s.queryHabits(`
		SELECT id, user_id, name, description, type, target_value, schedule, reminder_times, difficulty, active, created_at
		FROM habits WHERE active = 1 ORDER BY created_at`)
}

func (s *Store) UpdateHabit(h models.Habit) error {
	res, err := s.db.Exec(`
		UPDATE habits SET name = ?, description = ?, type = ?, target_value = ?, schedule = ?, reminder_times = ?, difficulty = ?, active = ?
		WHERE id = ? AND user_id = ?`,
		h.Name, nullString(h.Description), h.Type, h.TargetValue, nullString(h.Schedule),
		nullString(h.ReminderTimes), h.Difficulty, boolToInt(h.Active), h.ID, h.UserID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	return requireRow(res)
}

// DeactivateHabit soft-deletes the habit and cancels any reminders
// still waiting to be sent. Both statements run in one transaction.
func (s *Store) DeactivateHabit(id, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := tx.Exec("UPDATE habits SET active = 0 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to deactivate habit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return storage.ErrNotFound
	}

	if _, err := tx.Exec(
		"UPDATE notifications SET status = ? WHERE habit_id = ? AND status = ?",
		models.StatusCancelled, id, models.StatusScheduled); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to cancel notifications: %w", err)
	}

	return tx.Commit()
}

func (s *Store) queryHabits(query string, args ...any) ([]models.Habit, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var active int
	var createdAt string
	var description, schedule, reminderTimes sql.NullString
	var targetValue sql.NullFloat64

	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &description, &h.Type, &targetValue,
		&schedule, &reminderTimes, &h.Difficulty, &active, &createdAt); err != nil {
		return models.Habit{}, err
	}
	h.Description = description.String
	h.TargetValue = targetValue.Float64
	h.Schedule = schedule.String
	h.ReminderTimes = reminderTimes.String
	h.Active = active != 0

	var err error
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}
