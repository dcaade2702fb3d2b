package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

// UpsertEntry inserts the entry or, when the (habit, day) row already
// exists, replaces its value, completion flag, and note. The original
// row's id and created_at survive a replace.
func (s *Store) UpsertEntry(e models.Entry) (bool, error) {
	var existing string
	err := s.db.QueryRow("SELECT id FROM entries WHERE habit_id = ? AND day = ?", e.HabitID, e.Day).Scan(&existing)
	updated := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up entry: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO entries (id, habit_id, user_id, day, completed, value, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO UPDATE SET
			completed = excluded.completed,
			value = excluded.value,
			note = excluded.note,
			updated_at = excluded.updated_at`,
		e.ID, e.HabitID, e.UserID, e.Day, boolToInt(e.Completed), e.Value, nullString(e.Note),
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to upsert entry: %w", err)
	}
	return updated, nil
}

func (s *Store) GetEntry(habitID, day string) (models.Entry, error) {
	row := s.db.QueryRow(`
		SELECT id, habit_id, user_id, day, completed, value, note, created_at, updated_at
		FROM entries WHERE habit_id = ? AND day = ?`, habitID, day)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entry{}, storage.ErrNotFound
		}
		return models.Entry{}, err
	}
	return e, nil
}

func (s *Store) GetEntries(habitID, fromDay, toDay string) ([]models.Entry, error) {
	return s.queryEntries(`
		SELECT id, habit_id, user_id, day, completed, value, note, created_at, updated_at
		FROM entries WHERE habit_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		habitID, fromDay, toDay)
}

func (s *Store) GetAllEntries(habitID string) ([]models.Entry, error) {
	return s.queryEntries(`
		SELECT id, habit_id, user_id, day, completed, value, note, created_at, updated_at
		FROM entries WHERE habit_id = ? ORDER BY day`, habitID)
}

func (s *Store) SaveStatSnapshot(snap models.StatSnapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO stat_snapshots (id, habit_id, day, current_streak, best_streak, rate_7d, rate_30d, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO UPDATE SET
			current_streak = excluded.current_streak,
			best_streak = excluded.best_streak,
			rate_7d = excluded.rate_7d,
			rate_30d = excluded.rate_30d`,
		snap.ID, snap.HabitID, snap.Day, snap.CurrentStreak, snap.BestStreak,
		snap.Rate7d, snap.Rate30d, snap.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save stat snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetStatSnapshots(habitID, fromDay, toDay string) ([]models.StatSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, habit_id, day, current_streak, best_streak, rate_7d, rate_30d, created_at
		FROM stat_snapshots WHERE habit_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		habitID, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []models.StatSnapshot
	for rows.Next() {
		var snap models.StatSnapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.HabitID, &snap.Day, &snap.CurrentStreak,
			&snap.BestStreak, &snap.Rate7d, &snap.Rate30d, &createdAt); err != nil {
			return nil, err
		}
		if snap.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *Store) queryEntries(query string, args ...any) ([]models.Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row rowScanner) (models.Entry, error) {
	var e models.Entry
	var completed int
	var createdAt, updatedAt string
	var note sql.NullString
	var value sql.NullFloat64

	if err := row.Scan(&e.ID, &e.HabitID, &e.UserID, &e.Day, &completed, &value, &note, &createdAt, &updatedAt); err != nil {
		return models.Entry{}, err
	}
	e.Completed = completed != 0
	e.Value = value.Float64
	e.Note = note.String

	var err error
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Entry{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}
